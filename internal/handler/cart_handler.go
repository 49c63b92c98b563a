package handler

import (
	"net/http"

	"orders-api/internal/model"
	"orders-api/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles the temporal order (cart) endpoints. Every route
// requires an authenticated caller.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Add handles POST /api/temporalOrders/full.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	var req model.TemporalOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	line, err := h.service.Add(r.Context(), c.Email, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// Update handles PUT /api/temporalOrders/full.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	var req model.TemporalOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	line, err := h.service.Update(r.Context(), c.Email, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// Mine handles GET /api/temporalOrders/my.
func (h *CartHandler) Mine(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	lines, err := h.service.Mine(r.Context(), c.Email)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, lines)
}

// Count handles GET /api/temporalOrders/count.
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	count, err := h.service.Count(r.Context(), c.Email)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// Get handles GET /api/temporalOrders/{id}.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	line, err := h.service.Get(r.Context(), c.Email, id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// Delete handles DELETE /api/temporalOrders/{id}.
func (h *CartHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), c.Email, id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
