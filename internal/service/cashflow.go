package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/moneyflow/internal/analytics"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
)

// Quick entry directions as sent by the dashboard.
const (
	CashIn  = "cash_in"
	CashOut = "cash_out"
)

// QuickEntryInput is the dashboard's quick-entry form.
type QuickEntryInput struct {
	Amount   string
	Type     string
	Category string
	Tags     []string
}

// QuickEntry logs an income or expense against the user's default allowance
// account.
func (s *Service) QuickEntry(ctx context.Context, userID string, in QuickEntryInput) (*domain.Transaction, error) {
	amount, err := domain.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, domain.Invalid("category", "category is required")
	}
	if in.Type != CashIn && in.Type != CashOut {
		return nil, domain.Invalid("type", "must be cash_in or cash_out")
	}

	account, err := s.DefaultAccount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("QuickEntry: %w", err)
	}

	input := TransactionInput{
		Amount:   amount,
		Category: in.Category,
		Metadata: domain.QuickEntryTags(in.Tags),
	}
	kind := domain.KindExpense
	if in.Type == CashIn {
		kind = domain.KindIncome
		input.ToAccountID = account.ID
	} else {
		input.FromAccountID = account.ID
	}
	return s.RecordTransaction(ctx, userID, kind, input)
}

// DateRange is a half-open interval [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate requires both ends and From before To.
func (r DateRange) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return domain.Invalid("startDate", "missing required parameters: startDate, endDate")
	}
	if !r.From.Before(r.To) {
		return domain.Invalid("endDate", "must not be before startDate")
	}
	return nil
}

// DayRange is the local calendar day containing t.
func DayRange(t time.Time, loc *time.Location) DateRange {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DateRange{From: start, To: start.AddDate(0, 0, 1)}
}

func (s *Service) rangeTransactions(ctx context.Context, userID string, r DateRange) ([]*domain.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, store.TransactionFilter{From: r.From, To: r.To})
}

func (s *Service) loc(loc *time.Location) *time.Location {
	if loc == nil {
		return s.location
	}
	return loc
}

// Today totals the caller's cash flow for the current local day.
func (s *Service) Today(ctx context.Context, userID string, loc *time.Location) (analytics.Summary, error) {
	txs, err := s.rangeTransactions(ctx, userID, DayRange(s.now(), s.loc(loc)))
	if err != nil {
		return analytics.Summary{}, fmt.Errorf("Today: %w", err)
	}
	return analytics.Summarize(txs), nil
}

// Recent returns the latest ledger entries in the dashboard's shape.
func (s *Service) Recent(ctx context.Context, userID string) ([]analytics.RecentEntry, error) {
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{Limit: analytics.RecentLimit})
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return analytics.Recent(txs, analytics.RecentLimit), nil
}

// TimeSeries buckets the range's cash flow by view in the caller's timezone.
func (s *Service) TimeSeries(ctx context.Context, userID string, view analytics.TimeView, r DateRange, loc *time.Location) ([]analytics.Point, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	txs, err := s.rangeTransactions(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("TimeSeries: %w", err)
	}
	return analytics.TimeSeries(txs, view, s.loc(loc)), nil
}

// ByCategory breaks the range's income or expenses down by category.
func (s *Service) ByCategory(ctx context.Context, userID string, flow analytics.Flow, r DateRange) ([]analytics.CategoryShare, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	txs, err := s.rangeTransactions(ctx, userID, r)
	if err != nil {
		return nil, fmt.Errorf("ByCategory: %w", err)
	}
	return analytics.ByCategory(txs, flow), nil
}
