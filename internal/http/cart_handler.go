package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/n0remac/Lumeron/internal/cart"
	"github.com/n0remac/Lumeron/internal/catalog"
)

type CartHandler struct {
	repo   cart.Repository
	oracle catalog.Oracle
	logger zerolog.Logger
}

func NewCartHandler(repo cart.Repository, oracle catalog.Oracle, logger zerolog.Logger) *CartHandler {
	return &CartHandler{repo: repo, oracle: oracle, logger: logger}
}

func (h *CartHandler) NewSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": cart.NewSessionID()})
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	lines, err := h.repo.GetLines(ctx, sessionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("load cart failed")
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if lines == nil {
		lines = []cart.Line{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": lines})
}

type addLineRequest struct {
	SessionID string `json:"sessionId"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Finish    string `json:"finish"`
	Quantity  int    `json:"quantity"`
	// A unitPriceCents field sent by the client is deliberately ignored;
	// display prices come from the catalog.
}

func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" || req.ProductID == "" || req.Size == "" || req.Finish == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	pv, err := h.oracle.Lookup(ctx, req.ProductID, req.Size, req.Finish)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	line := cart.Line{
		SessionID:      req.SessionID,
		ProductID:      req.ProductID,
		Size:           req.Size,
		Finish:         req.Finish,
		Quantity:       req.Quantity,
		UnitPriceCents: pv.Variant.PriceCents,
		ImageURL:       pv.Product.ImageURL,
	}

	if err := h.repo.AddLine(ctx, line); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("add cart line failed")
		writeError(w, http.StatusInternalServerError, "failed to add item to cart")
		return
	}

	h.respondWithLines(ctx, w, req.SessionID)
}

type updateLineRequest struct {
	SessionID string `json:"sessionId"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Finish    string `json:"finish"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var req updateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" || req.ProductID == "" || req.Size == "" || req.Finish == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := cart.Key{ProductID: req.ProductID, Size: req.Size, Finish: req.Finish}
	if err := h.repo.SetQuantity(ctx, req.SessionID, key, req.Quantity); err != nil {
		switch {
		case errors.Is(err, cart.ErrInvalidQuantity):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, cart.ErrLineNotFound):
			writeError(w, http.StatusNotFound, "item not found in cart")
		default:
			h.logger.Error().Err(err).Msg("update cart line failed")
			writeError(w, http.StatusInternalServerError, "failed to update cart")
		}
		return
	}

	h.respondWithLines(ctx, w, req.SessionID)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	var req updateLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.SessionID == "" || req.ProductID == "" || req.Size == "" || req.Finish == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	key := cart.Key{ProductID: req.ProductID, Size: req.Size, Finish: req.Finish}
	if err := h.repo.RemoveLine(ctx, req.SessionID, key); err != nil {
		if errors.Is(err, cart.ErrLineNotFound) {
			writeError(w, http.StatusNotFound, "item not found in cart")
			return
		}
		h.logger.Error().Err(err).Msg("remove cart line failed")
		writeError(w, http.StatusInternalServerError, "failed to remove item from cart")
		return
	}

	h.respondWithLines(ctx, w, req.SessionID)
}

func (h *CartHandler) respondWithLines(ctx context.Context, w http.ResponseWriter, sessionID string) {
	lines, err := h.repo.GetLines(ctx, sessionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("reload cart failed")
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lines})
}

func (h *CartHandler) writeLookupError(w http.ResponseWriter, err error) {
	var notFound *catalog.ProductNotFoundError
	var unavailable *catalog.VariantUnavailableError
	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &unavailable):
		writeError(w, http.StatusBadRequest, unavailable.Error())
	default:
		h.logger.Error().Err(err).Msg("catalog lookup failed")
		writeError(w, http.StatusInternalServerError, "catalog lookup failed")
	}
}
