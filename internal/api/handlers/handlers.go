// Package handlers holds the HTTP handlers of the ledger API. Every handler
// reads the caller from middleware.UserID and delegates to service.Service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dvloznov/moneyflow/internal/api/middleware"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/dvloznov/moneyflow/internal/service"
)

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		middleware.WriteError(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrNegativePrincipal):
		middleware.WriteError(w, http.StatusBadRequest, domain.ErrNegativePrincipal.Error())
	case errors.Is(err, service.ErrSuggestionsDisabled):
		middleware.WriteError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON reads the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// HealthHandler answers GET /health.
type HealthHandler struct {
	storage string
	now     func() time.Time
}

// NewHealthHandler creates a health handler reporting the storage driver.
func NewHealthHandler(storageDriver string) *HealthHandler {
	return &HealthHandler{storage: storageDriver, now: time.Now}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"time":    h.now().Format(time.RFC3339),
		"storage": h.storage,
	})
}
