package service

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/shopspring/decimal"
)

// Categories of the ledger rows that mirror investment movements.
const (
	CategoryInvestment       = "Investment"
	CategoryInvestmentReturn = "Investment Return"
)

// InvestmentView is an investment with its derived figures and, for detail
// reads, its value history.
type InvestmentView struct {
	*domain.Investment
	AbsoluteGain     decimal.Decimal         `json:"absolute_gain"`
	PercentageChange decimal.Decimal         `json:"percentage_change"`
	History          []*domain.ValueSnapshot `json:"history,omitempty"`
}

func viewOf(inv *domain.Investment) InvestmentView {
	return InvestmentView{
		Investment:       inv,
		AbsoluteGain:     inv.Gain(),
		PercentageChange: inv.PercentageChange(),
	}
}

// CreateInvestmentInput is the payload of a new position.
type CreateInvestmentInput struct {
	Name      string
	Type      domain.InvestmentType
	Principal decimal.Decimal
	StartDate civil.Date
	Notes     string
}

// CreateInvestment opens a position, records its initial value and mirrors the
// principal leaving the default allowance account.
func (s *Service) CreateInvestment(ctx context.Context, userID string, in CreateInvestmentInput) (InvestmentView, error) {
	now := s.now()
	inv, err := domain.NewInvestment(userID, in.Name, in.Type, in.Principal, in.StartDate, now)
	if err != nil {
		return InvestmentView{}, err
	}
	inv.ID = s.newID()
	inv.Notes = in.Notes

	if err := s.store.CreateInvestment(ctx, inv); err != nil {
		return InvestmentView{}, fmt.Errorf("CreateInvestment: %w", err)
	}

	s.appendSnapshot(ctx, inv.ID, inv.CurrentValue, now, "Initial investment")
	s.mirrorMovement(ctx, inv, domain.KindExpense, inv.Principal, now, domain.ActionInvest, CategoryInvestment, in.Notes)
	return viewOf(inv), nil
}

// ListInvestments returns the user's positions, newest first.
func (s *Service) ListInvestments(ctx context.Context, userID string) ([]InvestmentView, error) {
	invs, err := s.store.ListInvestments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListInvestments: %w", err)
	}
	views := make([]InvestmentView, 0, len(invs))
	for _, inv := range invs {
		views = append(views, viewOf(inv))
	}
	return views, nil
}

// GetInvestment returns one position with its history, oldest entry first.
func (s *Service) GetInvestment(ctx context.Context, userID, investmentID string) (InvestmentView, error) {
	inv, err := s.store.GetInvestment(ctx, userID, investmentID)
	if err != nil {
		return InvestmentView{}, err
	}
	history, err := s.store.ListSnapshots(ctx, investmentID)
	if err != nil {
		return InvestmentView{}, fmt.Errorf("GetInvestment: listing history: %w", err)
	}
	view := viewOf(inv)
	view.History = history
	return view, nil
}

// DeleteInvestment removes a position and its history.
func (s *Service) DeleteInvestment(ctx context.Context, userID, investmentID string) error {
	return s.store.DeleteInvestment(ctx, userID, investmentID)
}

// UpdateValue records a manual valuation.
func (s *Service) UpdateValue(ctx context.Context, userID, investmentID string, value decimal.Decimal, recordedAt time.Time, notes string) (InvestmentView, error) {
	inv, err := s.store.GetInvestment(ctx, userID, investmentID)
	if err != nil {
		return InvestmentView{}, err
	}
	now := s.now()
	if err := inv.MarkValue(value, now); err != nil {
		return InvestmentView{}, err
	}
	if err := s.store.UpdateInvestment(ctx, inv); err != nil {
		return InvestmentView{}, fmt.Errorf("UpdateValue: %w", err)
	}

	if recordedAt.IsZero() {
		recordedAt = now
	}
	s.appendSnapshot(ctx, inv.ID, value, recordedAt, notes)
	return viewOf(inv), nil
}

// CashOut withdraws amount from a position on date, reducing its principal in
// proportion and mirroring the proceeds into the default allowance account.
func (s *Service) CashOut(ctx context.Context, userID, investmentID string, amount decimal.Decimal, date time.Time, notes string) (InvestmentView, error) {
	if date.IsZero() {
		return InvestmentView{}, domain.Invalid("date", "date is required")
	}
	inv, err := s.store.GetInvestment(ctx, userID, investmentID)
	if err != nil {
		return InvestmentView{}, err
	}

	now := s.now()
	res, err := inv.CashOut(amount, now)
	if err != nil {
		return InvestmentView{}, err
	}
	if err := s.store.UpdateInvestment(ctx, inv); err != nil {
		return InvestmentView{}, fmt.Errorf("CashOut: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("investment_id", inv.ID).
		Str("withdrawn", res.Withdrawn.String()).
		Str("principal_reduced", res.PrincipalReduced.String()).
		Bool("closed", res.Closed).
		Msg("Investment cash-out")

	s.appendSnapshot(ctx, inv.ID, inv.CurrentValue, date, fmt.Sprintf("Withdrawal: %s", amount.String()))
	s.mirrorMovement(ctx, inv, domain.KindIncome, amount, date, domain.ActionCashOut, CategoryInvestmentReturn, notes)
	return viewOf(inv), nil
}

// appendSnapshot writes a history entry. The investment row is already updated
// at this point, so a failure is logged rather than returned.
func (s *Service) appendSnapshot(ctx context.Context, investmentID string, value decimal.Decimal, at time.Time, notes string) {
	snap := &domain.ValueSnapshot{
		ID:           s.newID(),
		InvestmentID: investmentID,
		Value:        value,
		RecordedAt:   at,
		Notes:        notes,
		CreatedAt:    s.now(),
	}
	if err := s.store.AppendSnapshot(ctx, snap); err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("investment_id", investmentID).Msg("Failed to record investment history")
	}
}

// mirrorMovement writes the ledger row for money entering or leaving a
// position. Like appendSnapshot, failures are logged only.
func (s *Service) mirrorMovement(ctx context.Context, inv *domain.Investment, kind domain.TransactionKind, amount decimal.Decimal, at time.Time, action domain.InvestmentAction, category, notes string) {
	log := logger.FromContext(ctx)

	account, err := s.DefaultAccount(ctx, inv.UserID)
	if err != nil {
		log.Error().Err(err).Str("investment_id", inv.ID).Msg("Failed to resolve default account for investment transaction")
		return
	}

	in := TransactionInput{
		Amount:      amount,
		OccurredAt:  at,
		Category:    category,
		Description: inv.Name,
		Metadata:    domain.InvestmentLink(inv.ID, action, notes),
	}
	if kind == domain.KindIncome {
		in.ToAccountID = account.ID
	} else {
		in.FromAccountID = account.ID
	}
	if _, err := s.RecordTransaction(ctx, inv.UserID, kind, in); err != nil {
		log.Error().Err(err).Str("investment_id", inv.ID).Str("action", string(action)).Msg("Failed to record investment transaction")
	}
}
