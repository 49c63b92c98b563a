package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"orders-api/internal/auth"
	"orders-api/internal/middleware"
	"orders-api/internal/model"
	"orders-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 20 << 20

var validate = newValidator()

// newValidator registers singleline, which rejects CR and LF in values that
// end up in mail headers.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
	return v
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, logger zerolog.Logger) {
	requestID := middleware.RequestIDFromContext(r.Context())
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Str("code", code).Str("error", message).Int("status", status).Str("request_id", requestID).Msg("handler error")

	writeJSON(w, status, model.ErrorResponse{
		Error:         code,
		Message:       message,
		CorrelationID: requestID,
	})
}

// writeServiceError maps err to a status code. Domain errors keep their
// message; anything else is logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Str("path", r.URL.Path).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("unexpected error")
		writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternalError, "an unexpected error occurred", logger)
		return
	}

	status := http.StatusBadRequest
	switch de.Code {
	case model.ErrCodeNotFound:
		status = http.StatusNotFound
	case model.ErrCodeUnauthorised:
		status = http.StatusUnauthorized
	case model.ErrCodeForbidden:
		status = http.StatusForbidden
	case model.ErrCodeInternalError:
		status = http.StatusInternalServerError
	}
	writeError(w, r, status, de.Code, de.Message, logger)
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// decodeOptional is decode for requests whose fields are all optional. An
// empty body leaves dst at its zero value.
func decodeOptional(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.ValidationFailed(err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}
	return model.ValidationFailed(strings.Join(msgs, "; "))
}

// paginationFromQuery reads id, page, recordsnumber, filter and categoryFilter.
func paginationFromQuery(r *http.Request) (model.Pagination, error) {
	q := r.URL.Query()
	var p model.Pagination

	ints := []struct {
		name string
		dst  *int
	}{
		{"id", &p.ID},
		{"page", &p.Page},
		{"recordsnumber", &p.RecordsNumber},
	}
	for _, param := range ints {
		raw := q.Get(param.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return p, model.ValidationFailed(fmt.Sprintf("invalid %s parameter", param.name))
		}
		*param.dst = v
	}

	p.Filter = strings.TrimSpace(q.Get("filter"))
	p.CategoryFilter = strings.TrimSpace(q.Get("categoryFilter"))
	return p.Normalize(), nil
}

// pathInt parses a numeric chi URL parameter.
func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, model.ValidationFailed(fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}

// caller returns the authenticated caller. Routes using it sit behind
// middleware.Authenticate.
func caller(r *http.Request) (service.Caller, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return service.Caller{}, model.ErrUnauthorised
	}
	return service.Caller{Email: claims.Email, Role: claims.Role}, nil
}
