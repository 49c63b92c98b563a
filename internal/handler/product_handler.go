package handler

import (
	"net/http"

	"orders-api/internal/model"
	"orders-api/internal/service"

	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service service.ProductService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

// List handles GET /api/products with pagination, name and category filters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := paginationFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	products, err := h.service.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// TotalPages handles GET /api/products/totalPages.
func (h *ProductHandler) TotalPages(w http.ResponseWriter, r *http.Request) {
	p, err := paginationFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	pages, err := h.service.TotalPages(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

// GetByID handles GET /api/products/{id}.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products/full.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ProductRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// Update handles PUT /api/products/full.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.ProductRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

// AddImages handles POST /api/products/addImages.
func (h *ProductHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	var req model.ImageRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	images, err := h.service.AddImages(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// RemoveLastImage handles POST /api/products/removeLastImage.
func (h *ProductHandler) RemoveLastImage(w http.ResponseWriter, r *http.Request) {
	var req model.ImageRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	images, err := h.service.RemoveLastImage(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
