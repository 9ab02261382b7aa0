package handlers

import (
	"net/http"

	"github.com/dvloznov/moneyflow/internal/analytics"
	"github.com/dvloznov/moneyflow/internal/api/middleware"
	"github.com/dvloznov/moneyflow/internal/service"
	"github.com/rs/zerolog"
)

// CashFlowHandler handles quick entry and the dashboard analytics.
type CashFlowHandler struct {
	svc *service.Service
	log zerolog.Logger
}

// NewCashFlowHandler creates a new cash-flow handler.
func NewCashFlowHandler(svc *service.Service, log zerolog.Logger) *CashFlowHandler {
	return &CashFlowHandler{svc: svc, log: log}
}

// QuickEntry handles POST /api/cashflows/quick-entry
func (h *CashFlowHandler) QuickEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount       string   `json:"amount"`
		Type         string   `json:"type"`
		Category     string   `json:"category"`
		SelectedTags []string `json:"selectedTags"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := middleware.UserID(r.Context())
	tx, err := h.svc.QuickEntry(r.Context(), userID, service.QuickEntryInput{
		Amount:   req.Amount,
		Type:     req.Type,
		Category: req.Category,
		Tags:     req.SelectedTags,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.log.Info().Str("user_id", userID).Str("transaction_id", tx.ID).Msg("Quick entry recorded")
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"data":    tx,
		"message": "Quick entry created successfully",
	})
}

// Today handles GET /api/cashflows/analytics/today
func (h *CashFlowHandler) Today(w http.ResponseWriter, r *http.Request) {
	loc, err := requestLocation(r, h.svc.Location())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	summary, err := h.svc.Today(r.Context(), middleware.UserID(r.Context()), loc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, summary)
}

// Recent handles GET /api/cashflows/analytics/recent
func (h *CashFlowHandler) Recent(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Recent(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if entries == nil {
		entries = []analytics.RecentEntry{}
	}
	middleware.WriteJSON(w, http.StatusOK, entries)
}

// TimeSeries handles GET /api/cashflows/analytics/timeseries. With
// fillGaps=true empty periods between the first and last bucket are included.
func (h *CashFlowHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	view, err := analytics.ParseTimeView(query.Get("timeView"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	loc, err := requestLocation(r, h.svc.Location())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rng, err := parseRange(r, "startDate", "endDate", loc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	points, err := h.svc.TimeSeries(r.Context(), middleware.UserID(r.Context()), view, rng, loc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if query.Get("fillGaps") == "true" {
		if points, err = analytics.FillGaps(points, view); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	if points == nil {
		points = []analytics.Point{}
	}
	middleware.WriteJSON(w, http.StatusOK, points)
}

// ByCategory handles GET /api/cashflows/analytics/by-category
func (h *CashFlowHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	loc, err := requestLocation(r, h.svc.Location())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rng, err := parseRange(r, "startDate", "endDate", loc)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	flow, err := analytics.ParseFlow(r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	shares, err := h.svc.ByCategory(r.Context(), middleware.UserID(r.Context()), flow, rng)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if shares == nil {
		shares = []analytics.CategoryShare{}
	}
	middleware.WriteJSON(w, http.StatusOK, shares)
}
