// Package orchestrator runs the per-message conversation pipeline for leadgate.
//
// # Pipeline
//
// Every inbound message moves through a fixed sequence:
//
//  1. Input validation — empty text or an unsupported content type
//     short-circuits with a fixed retry prompt; nothing is recorded.
//  2. Session gate — paused sessions record the inbound turn and stay
//     silent; an operator must resume the session before replies flow
//     again.
//  3. Context load — the last N turns (default 10) come from
//     conversation memory.
//  4. Routing — the intent classifier picks a capability; any decision
//     below 0.7 confidence lands on the default conversational
//     capability.
//  5. Dispatch — the capability generates the reply; a failure here
//     degrades to a fixed fallback text, which the channel still
//     receives as a normal reply.
//  6. Estimation — service detection runs on the raw message no matter
//     which capability answered; a confident match appends a formatted
//     quote, persists it and marks the lead as quoted.
//  7. Persistence — both turns are appended to memory and, best-effort,
//     to the durable store. Reply delivery outranks durability: a
//     failed write is logged and accepted as a gap.
//
// # Failure Semantics
//
// The channel never sees a raw error. Every failure inside the pipeline
// resolves to a natural-language fallback message or, for paused
// sessions, to silence.
package orchestrator
