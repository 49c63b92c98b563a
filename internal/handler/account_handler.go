package handler

import (
	"net/http"

	"orders-api/internal/model"
	"orders-api/internal/service"

	"github.com/rs/zerolog"
)

// AccountHandler handles registration, login and profile endpoints.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("handler", "account").Logger(),
	}
}

// Register handles POST /api/accounts/CreateUser.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.UserRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if _, err := h.service.Register(r.Context(), &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmEmail handles GET /api/accounts/ConfirmEmail?userId=&token=.
func (h *AccountHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID, token := q.Get("userId"), q.Get("token")
	if userID == "" || token == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidationFailed, "userId and token are required", h.logger)
		return
	}

	if err := h.service.ConfirmEmail(r.Context(), userID, token); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResendConfirmation handles POST /api/accounts/ResedToken.
func (h *AccountHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Login handles POST /api/accounts/Login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	token, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// RecoverPassword handles POST /api/accounts/RecoverPassword.
func (h *AccountHandler) RecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req model.EmailRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := h.service.RecoverPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword handles POST /api/accounts/ResetPassword.
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles POST /api/accounts/changePassword.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	var req model.ChangePasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	if err := h.service.ChangePassword(r.Context(), c.Email, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Current handles GET /api/accounts.
func (h *AccountHandler) Current(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	user, err := h.service.Current(r.Context(), c.Email)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/accounts.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	c, err := caller(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	var req model.UserUpdateRequest
	if err := decode(w, r, &req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	token, err := h.service.UpdateProfile(r.Context(), c.Email, &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// List handles GET /api/accounts/all.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := paginationFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	users, err := h.service.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// TotalPages handles GET /api/accounts/totalPages.
func (h *AccountHandler) TotalPages(w http.ResponseWriter, r *http.Request) {
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
