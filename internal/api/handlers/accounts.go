package handlers

import (
	"net/http"

	"github.com/dvloznov/moneyflow/internal/api/middleware"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/service"
	"github.com/rs/zerolog"
)

// AccountsHandler handles account endpoints.
type AccountsHandler struct {
	svc *service.Service
	log zerolog.Logger
}

// NewAccountsHandler creates a new accounts handler.
func NewAccountsHandler(svc *service.Service, log zerolog.Logger) *AccountsHandler {
	return &AccountsHandler{svc: svc, log: log}
}

// ListAccounts handles GET /api/accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": accounts})
}

// CreateAccount handles POST /api/accounts
func (h *AccountsHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string             `json:"name"`
		Type domain.AccountType `json:"type"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := middleware.UserID(r.Context())
	account, err := h.svc.CreateAccount(r.Context(), userID, req.Name, req.Type)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.log.Info().Str("user_id", userID).Str("account_id", account.ID).Msg("Account created")
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"data":    account,
		"message": "Account created successfully",
	})
}

// GetAccount handles GET /api/accounts/{id}
func (h *AccountsHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.GetAccount(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": account})
}

// GetBalance handles GET /api/accounts/{id}/balance
func (h *AccountsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.svc.AccountBalance(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{"balance": balance},
	})
}
