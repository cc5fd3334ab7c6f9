package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/rs/zerolog"

	"github.com/n0remac/Lumeron/internal/catalog"
	"github.com/n0remac/Lumeron/internal/checkout"
	"github.com/n0remac/Lumeron/internal/order"
	"github.com/n0remac/Lumeron/internal/payment"
)

// CheckoutService is what the handler needs from the checkout layer.
type CheckoutService interface {
	CreateIntent(ctx context.Context, sessionID string, c checkout.Customer) (*checkout.IntentResponse, error)
	Confirm(ctx context.Context, intentID, sessionID string) (*order.Order, error)
}

type CheckoutHandler struct {
	svc    CheckoutService
	logger zerolog.Logger
}

func NewCheckoutHandler(svc CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, logger: logger}
}

type createIntentRequest struct {
	SessionID string        `json:"sessionId"`
	Email     string        `json:"email"`
	Name      string        `json:"name"`
	Address   order.Address `json:"address"`
}

func (r createIntentRequest) validate() string {
	if r.SessionID == "" {
		return "missing sessionId"
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return "invalid email"
	}
	if len(r.Name) < 2 {
		return "invalid name"
	}
	a := r.Address
	if a.Street == "" || a.City == "" || len(a.State) < 2 || len(a.Zip) < 3 || len(a.Country) < 2 {
		return "invalid address"
	}
	return ""
}

func (h *CheckoutHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	resp, err := h.svc.CreateIntent(ctx, req.SessionID, checkout.Customer{
		Email:   req.Email,
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.writeCreateIntentError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CheckoutHandler) writeCreateIntentError(w http.ResponseWriter, err error) {
	var notFound *catalog.ProductNotFoundError
	var unavailable *catalog.VariantUnavailableError
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.As(err, &notFound), errors.As(err, &unavailable):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, payment.ErrGateway):
		// Retryable: the order stays pending with no intent attached.
		writeError(w, http.StatusBadGateway, "payment gateway unavailable, try again")
	default:
		h.logger.Error().Err(err).Msg("create intent failed")
		writeError(w, http.StatusInternalServerError, "failed to create payment intent")
	}
}

type confirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	SessionID       string `json:"sessionId"`
}

func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.PaymentIntentID == "" || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	o, err := h.svc.Confirm(ctx, req.PaymentIntentID, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrPaymentNotCompleted):
			writeError(w, http.StatusBadRequest, "payment not completed")
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, payment.ErrGateway):
			writeError(w, http.StatusBadGateway, "payment gateway unavailable, try again")
		default:
			h.logger.Error().Err(err).Msg("confirm payment failed")
			writeError(w, http.StatusInternalServerError, "failed to confirm payment")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order":       o,
		"orderNumber": o.OrderNumber,
	})
}
