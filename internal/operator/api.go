// ABOUTME: Operator HTTP API: pause/resume sessions, inspect conversations
// ABOUTME: JSON over net/http with bearer-token auth on operator routes

package operator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/orbita-hq/leadgate/internal/auth"
	"github.com/orbita-hq/leadgate/internal/delivery"
	"github.com/orbita-hq/leadgate/internal/memory"
	"github.com/orbita-hq/leadgate/internal/orchestrator"
	"github.com/orbita-hq/leadgate/internal/session"
)

const defaultLookupTurns = 10

// API exposes the operator control surface and the message ingest
// boundary channel adapters call.
type API struct {
	gate      *session.Gate
	memory    *memory.Memory
	orch      *orchestrator.Orchestrator
	formatter *delivery.Formatter
	logger    *slog.Logger
}

// NewAPI creates the operator API. orch may be nil, disabling the
// message ingest route.
func NewAPI(gate *session.Gate, mem *memory.Memory, orch *orchestrator.Orchestrator, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		gate:      gate,
		memory:    mem,
		orch:      orch,
		formatter: delivery.NewFormatter(logger),
		logger:    logger.With("component", "operator"),
	}
}

// Handler returns the routed handler. Everything except the health
// endpoint requires a valid bearer token.
func (a *API) Handler(verifier auth.TokenVerifier) http.Handler {
	authed := auth.Middleware(verifier, a.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.Handle("POST /operator/sessions/{id}/pause", authed(http.HandlerFunc(a.handlePause)))
	mux.Handle("POST /operator/sessions/{id}/resume", authed(http.HandlerFunc(a.handleResume)))
	mux.Handle("GET /operator/conversations/{id}", authed(http.HandlerFunc(a.handleConversation)))
	if a.orch != nil {
		mux.Handle("POST /messages", authed(http.HandlerFunc(a.handleMessage)))
	}
	return mux
}

type messageRequest struct {
	ExternalID     string `json:"external_id"`
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	ContentType    string `json:"content_type"`
	SenderName     string `json:"sender_name"`
	SenderUsername string `json:"sender_username"`
	Origin         string `json:"origin"`
}

type payloadResponse struct {
	Text string `json:"text"`
	Mode string `json:"mode"`
}

type messageResponse struct {
	Silent     bool             `json:"silent"`
	Capability string           `json:"capability,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
	Reply      *payloadResponse `json:"reply,omitempty"`
	Fallback   *payloadResponse `json:"fallback,omitempty"`
	Hints      []string         `json:"hints,omitempty"`
}

// handleMessage is the ingest boundary: one inbound channel message in,
// the assembled reply (in both delivery stages) out.
func (a *API) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = req.ExternalID
	}
	if req.ContentType == "" {
		req.ContentType = orchestrator.ContentTypeText
	}

	result, err := a.orch.Process(r.Context(), orchestrator.Inbound{
		ExternalID:     req.ExternalID,
		ConversationID: req.ConversationID,
		Message:        req.Message,
		ContentType:    req.ContentType,
		SenderName:     req.SenderName,
		SenderUsername: req.SenderUsername,
		Origin:         req.Origin,
	})
	if err != nil {
		a.logger.Error("message processing failed", "external_id", req.ExternalID, "error", err)
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}

	resp := messageResponse{Silent: result.Silent}
	if !result.Silent {
		rendered := a.formatter.Format(result.Reply)
		plain := a.formatter.Plain(result.Reply)
		resp.Capability = result.Capability
		resp.Confidence = result.Confidence
		resp.Reply = &payloadResponse{Text: rendered.Text, Mode: rendered.Mode}
		resp.Fallback = &payloadResponse{Text: plain.Text, Mode: plain.Mode}
		resp.Hints = result.Hints
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionResponse struct {
	ExternalID string     `json:"external_id"`
	State      string     `json:"state"`
	PausedAt   *time.Time `json:"paused_at,omitempty"`
	PausedBy   string     `json:"paused_by,omitempty"`
}

func (a *API) handlePause(w http.ResponseWriter, r *http.Request) {
	externalID := r.PathValue("id")
	operatorID := auth.OperatorFromContext(r.Context())

	if err := a.gate.Pause(r.Context(), externalID, operatorID); err != nil {
		a.logger.Error("pause failed", "external_id", externalID, "error", err)
		writeError(w, http.StatusInternalServerError, "pause failed")
		return
	}

	a.logger.Info("session paused", "external_id", externalID, "operator", operatorID)
	a.writeSession(w, externalID)
}

func (a *API) handleResume(w http.ResponseWriter, r *http.Request) {
	externalID := r.PathValue("id")
	operatorID := auth.OperatorFromContext(r.Context())

	if err := a.gate.Resume(r.Context(), externalID); err != nil {
		a.logger.Error("resume failed", "external_id", externalID, "error", err)
		writeError(w, http.StatusInternalServerError, "resume failed")
		return
	}

	a.logger.Info("session resumed", "external_id", externalID, "operator", operatorID)
	a.writeSession(w, externalID)
}

func (a *API) writeSession(w http.ResponseWriter, externalID string) {
	resp := sessionResponse{ExternalID: externalID, State: session.StateActive}
	if s, ok := a.gate.Snapshot(externalID); ok {
		resp.State = s.State
		resp.PausedAt = s.PausedAt
		resp.PausedBy = s.PausedBy
	}
	writeJSON(w, http.StatusOK, resp)
}

type turnResponse struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Capability string    `json:"capability,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type conversationResponse struct {
	ConversationID string         `json:"conversation_id"`
	Turns          []turnResponse `json:"turns"`
}

func (a *API) handleConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := r.PathValue("id")

	turns := a.memory.RecentTurns(conversationID, defaultLookupTurns)
	resp := conversationResponse{
		ConversationID: conversationID,
		Turns:          make([]turnResponse, 0, len(turns)),
	}
	for _, t := range turns {
		resp.Turns = append(resp.Turns, turnResponse{
			Role:       t.Role,
			Content:    t.Content,
			Capability: t.Capability,
			Timestamp:  t.Timestamp,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Default().Warn("response encoding failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
