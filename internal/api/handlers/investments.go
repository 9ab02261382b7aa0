package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/moneyflow/internal/api/middleware"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InvestmentsHandler handles investment endpoints.
type InvestmentsHandler struct {
	svc *service.Service
	log zerolog.Logger
}

// NewInvestmentsHandler creates a new investments handler.
func NewInvestmentsHandler(svc *service.Service, log zerolog.Logger) *InvestmentsHandler {
	return &InvestmentsHandler{svc: svc, log: log}
}

// CreateInvestment handles POST /api/investments
func (h *InvestmentsHandler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string          `json:"name"`
		Type      string          `json:"type"`
		Principal decimal.Decimal `json:"principal"`
		StartDate string          `json:"start_date"`
		Notes     string          `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	typ, err := domain.ParseInvestmentType(req.Type)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.StartDate == "" {
		writeServiceError(w, r, domain.Invalid("start_date", "start date is required"))
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	userID := middleware.UserID(r.Context())
	view, err := h.svc.CreateInvestment(r.Context(), userID, service.CreateInvestmentInput{
		Name:      req.Name,
		Type:      typ,
		Principal: req.Principal,
		StartDate: start,
		Notes:     req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.log.Info().Str("user_id", userID).Str("investment_id", view.ID).Msg("Investment created")
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{"data": view})
}

// ListInvestments handles GET /api/investments
func (h *InvestmentsHandler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListInvestments(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": views})
}

// GetInvestment handles GET /api/investments/{id}
func (h *InvestmentsHandler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetInvestment(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": view})
}

// UpdateValue handles POST /api/investments/{id}/value
func (h *InvestmentsHandler) UpdateValue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value      *decimal.Decimal `json:"value"`
		RecordedAt string           `json:"recorded_at"`
		Notes      string           `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeServiceError(w, r, domain.Invalid("value", "value is required"))
		return
	}

	var recordedAt time.Time
	if req.RecordedAt != "" {
		var err error
		if recordedAt, err = parseTime("recorded_at", req.RecordedAt, time.UTC, false); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	view, err := h.svc.UpdateValue(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"), *req.Value, recordedAt, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": view})
}

// CashOut handles POST /api/investments/{id}/cashout
func (h *InvestmentsHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Date   string          `json:"date"`
		Notes  string          `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Amount.IsPositive() {
		writeServiceError(w, r, domain.Invalid("amount", "amount must be greater than 0"))
		return
	}
	if req.Date == "" {
		writeServiceError(w, r, domain.Invalid("date", "date is required"))
		return
	}
	date, err := parseTime("date", req.Date, time.UTC, false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	userID := middleware.UserID(r.Context())
	view, err := h.svc.CashOut(r.Context(), userID, r.PathValue("id"), req.Amount, date, req.Notes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": view})
}

// DeleteInvestment handles DELETE /api/investments/{id}
func (h *InvestmentsHandler) DeleteInvestment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	id := r.PathValue("id")
	if err := h.svc.DeleteInvestment(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.log.Info().Str("user_id", userID).Str("investment_id", id).Msg("Investment deleted")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"message": "Investment deleted successfully"})
}
