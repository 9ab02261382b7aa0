package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/moneyflow/internal/api/middleware"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/service"
	"github.com/dvloznov/moneyflow/internal/store"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionsHandler handles ledger endpoints.
type TransactionsHandler struct {
	svc *service.Service
	log zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(svc *service.Service, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, log: log}
}

type transactionRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Date          string          `json:"date"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Metadata      domain.Metadata `json:"metadata"`
}

func (req transactionRequest) input() (service.TransactionInput, error) {
	in := service.TransactionInput{
		Amount:        req.Amount,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Category:      req.Category,
		Description:   req.Description,
		Metadata:      req.Metadata,
	}
	if req.Metadata.Kind == domain.MetadataInvestment {
		return in, domain.Invalid("metadata", "investment links are created by the server")
	}
	if req.Date != "" {
		t, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			return in, domain.Invalid("date", "must be an RFC 3339 timestamp")
		}
		in.OccurredAt = t
	}
	return in, nil
}

// CreateIncome handles POST /api/transactions/income
func (h *TransactionsHandler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, domain.KindIncome, "Income created successfully")
}

// CreateExpense handles POST /api/transactions/expense
func (h *TransactionsHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, domain.KindExpense, "Expense created successfully")
}

// CreateTransfer handles POST /api/transactions/transfer
func (h *TransactionsHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, domain.KindTransfer, "Transfer created successfully")
}

func (h *TransactionsHandler) create(w http.ResponseWriter, r *http.Request, kind domain.TransactionKind, message string) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	userID := middleware.UserID(r.Context())
	tx, err := h.svc.RecordTransaction(r.Context(), userID, kind, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.log.Info().
		Str("user_id", userID).
		Str("transaction_id", tx.ID).
		Str("transaction_type", string(kind)).
		Msg("Transaction recorded")

	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"data":    tx,
		"message": message,
	})
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := store.TransactionFilter{
		Kind:      domain.TransactionKind(query.Get("transaction_type")),
		AccountID: query.Get("account_id"),
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if query.Get("limit") != "" && filter.Limit <= 0 {
		writeServiceError(w, r, domain.Invalid("limit", "must be between 1 and %d", store.MaxListLimit))
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		writeServiceError(w, r, err)
		return
	}

	loc, err := requestLocation(r, h.svc.Location())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if v := query.Get("start_date"); v != "" {
		if filter.From, err = parseTime("start_date", v, loc, false); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	if v := query.Get("end_date"); v != "" {
		if filter.To, err = parseTime("end_date", v, loc, true); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	txs, err := h.svc.ListTransactions(r.Context(), middleware.UserID(r.Context()), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": txs})
}

// SuggestCategory handles POST /api/transactions/suggest-category
func (h *TransactionsHandler) SuggestCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.svc.SuggestCategory(r.Context(), middleware.UserID(r.Context()), req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"category": category})
}
