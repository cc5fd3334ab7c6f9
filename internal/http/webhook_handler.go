package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/n0remac/Lumeron/internal/checkout"
	"github.com/n0remac/Lumeron/internal/order"
	"github.com/n0remac/Lumeron/internal/payment"
)

const maxWebhookBody = 1 << 20

// WebhookHandler receives signed payment-gateway events. Delivery is
// at-least-once: the handler acknowledges only after the reconciliation
// transaction commits (or is confirmed a no-op), and returns 5xx otherwise
// so the gateway redelivers.
type WebhookHandler struct {
	secret string
	recon  checkout.Reconciler
	logger zerolog.Logger
}

func NewWebhookHandler(secret string, recon checkout.Reconciler, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{secret: secret, recon: recon, logger: logger}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	sig := r.Header.Get(payment.SignatureHeader)
	if sig == "" {
		writeError(w, http.StatusBadRequest, "missing signature header")
		return
	}

	ev, err := payment.ConstructEvent(body, sig, h.secret)
	if err != nil {
		h.logger.Warn().Err(err).Msg("webhook rejected")
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}

	outcome, ok := payment.OutcomeForEvent(ev.Type)
	if !ok {
		h.logger.Info().Str("type", string(ev.Type)).Msg("unhandled webhook event type")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.recon.Reconcile(ctx, ev.IntentID, outcome)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// No order correlates to this intent; redelivery cannot fix
			// that, so acknowledge instead of triggering a retry storm.
			h.logger.Error().Str("intentId", ev.IntentID).Msg("webhook for unknown payment intent")
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		h.logger.Error().Err(err).Str("intentId", ev.IntentID).Msg("webhook reconciliation failed")
		writeError(w, http.StatusInternalServerError, "webhook handler failed")
		return
	}

	h.logger.Info().
		Str("intentId", ev.IntentID).
		Str("orderNumber", res.OrderNumber).
		Str("status", res.Status.String()).
		Bool("transitioned", res.Transitioned).
		Msg("webhook processed")

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
