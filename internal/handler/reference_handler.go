package handler

import (
	"net/http"

	"orders-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// ReferenceHandler serves the CRUD and combo endpoints of one lookup entity.
type ReferenceHandler[T any] struct {
	service service.ReferenceService[T]
	logger  zerolog.Logger
}

// NewReferenceHandler creates a handler for the named entity.
func NewReferenceHandler[T any](name string, svc service.ReferenceService[T], logger zerolog.Logger) *ReferenceHandler[T] {
	return &ReferenceHandler[T]{
		service: svc,
		logger:  logger.With().Str("handler", name).Logger(),
	}
}

// List handles GET /api/{entity}.
func (h *ReferenceHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	p, err := paginationFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	items, err := h.service.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// TotalPages handles GET /api/{entity}/totalPages.
func (h *ReferenceHandler[T]) TotalPages(w http.ResponseWriter, r *http.Request) {
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

// All handles GET /api/{entity}/full.
func (h *ReferenceHandler[T]) All(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.All(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Combo handles GET /api/{entity}/combo and /api/{entity}/combo/{parentId}.
func (h *ReferenceHandler[T]) Combo(w http.ResponseWriter, r *http.Request) {
	parentID := 0
	if chi.URLParam(r, "parentId") != "" {
		id, err := pathInt(r, "parentId")
		if err != nil {
			writeServiceError(w, r, err, h.logger)
			return
		}
		parentID = id
	}

	items, err := h.service.Combo(r.Context(), parentID)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetByID handles GET /api/{entity}/{id}.
func (h *ReferenceHandler[T]) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	item, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create handles POST /api/{entity}.
func (h *ReferenceHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	var entity T
	if err := decode(w, r, &entity); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	created, err := h.service.Create(r.Context(), &entity)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// Update handles PUT /api/{entity}. The id travels in the body.
func (h *ReferenceHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	var entity T
	if err := decode(w, r, &entity); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	updated, err := h.service.Update(r.Context(), &entity)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/{entity}/{id}.
func (h *ReferenceHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
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
