package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/n0remac/Lumeron/internal/order"
	"github.com/n0remac/Lumeron/internal/sales"
)

type AdminHandler struct {
	orders order.Repository
	sales  sales.Repository
	logger zerolog.Logger
}

func NewAdminHandler(orders order.Repository, salesRepo sales.Repository, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{orders: orders, sales: salesRepo, logger: logger}
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := h.orders.ListRecent(ctx, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("list orders failed")
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing orderId")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	next := order.Status(req.Status)
	if !next.Valid() {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	// paid is only ever set by payment reconciliation, which also writes the
	// sales ledger; an admin cannot mark an order paid by hand.
	if next == order.StatusPaid {
		writeError(w, http.StatusConflict, "paid is set by payment reconciliation")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.orders.UpdateStatus(ctx, orderID, next); err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrInvalidTransition):
			writeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error().Err(err).Msg("update order status failed")
			writeError(w, http.StatusInternalServerError, "failed to update status")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(next)})
}

func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	from, ok := parseTimeParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, r, "to")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	total, err := h.sales.TotalRevenue(ctx, from, to)
	if err != nil {
		h.logger.Error().Err(err).Msg("total revenue query failed")
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}

	byChannel, err := h.sales.RevenueByChannel(ctx, from, to)
	if err != nil {
		h.logger.Error().Err(err).Msg("revenue by channel query failed")
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	if byChannel == nil {
		byChannel = []sales.ChannelRevenue{}
	}

	top, err := h.sales.TopProducts(ctx, 10, from, to)
	if err != nil {
		h.logger.Error().Err(err).Msg("top products query failed")
		writeError(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	if top == nil {
		top = []sales.TopProduct{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"totalCents":  total,
		"byChannel":   byChannel,
		"topProducts": top,
	})
}

func parseTimeParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}

	writeError(w, http.StatusBadRequest, "invalid "+name+" parameter")
	return nil, false
}
