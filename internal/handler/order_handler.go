package handler

import (
	"net/http"

	"orders-api/internal/model"
	"orders-api/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Checkout handles POST /api/orders. It turns the caller's cart into an order.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	var req model.CheckoutRequest
	if err := decodeOptional(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := h.service.Checkout(r.Context(), c.Email, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus handles PUT /api/orders.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	var req model.OrderStatusRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), c, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// List handles GET /api/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	p, err := paginationFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	orders, err := h.service.List(r.Context(), c, p)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// TotalPages handles GET /api/orders/totalPages.
func (h *OrderHandler) TotalPages(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	p, err := paginationFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	pages, err := h.service.TotalPages(r.Context(), c, p)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

// GetByID handles GET /api/orders/{id}.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
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

	order, err := h.service.GetByID(r.Context(), c, id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
