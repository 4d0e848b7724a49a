// Package estimate provides deterministic price estimation for the
// service catalog.
//
// # Detection
//
// DetectService scans a message for catalog keywords after folding
// diacritics, so "automatización" and "automatizacion" match the same
// entry. Confidence starts at 0.5 for a single keyword hit and grows
// 0.25 per extra hit, capped at 1.0. Ties break by catalog order.
//
// # Pricing
//
// FinalPrice = BasePrice × level multiplier × details adjustment.
//
// The level multiplier comes from the complexity level (simple 0.7,
// standard 1.0, complejo 1.5). The details adjustment inspects the
// free-text details: high-complexity wording raises the price ×1.3,
// anything else lowers it ×0.8. Both factors apply independently, so a
// marker word like "básico" can influence the price twice — once
// through the detected level and once through the adjustment. This is
// intentional and pinned by tests.
//
// The catalog itself is immutable and shared without locking.
package estimate
