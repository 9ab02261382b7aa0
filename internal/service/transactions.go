package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
	"github.com/shopspring/decimal"
)

// TransactionInput is the caller-supplied part of a ledger entry.
type TransactionInput struct {
	Amount        decimal.Decimal
	FromAccountID string
	ToAccountID   string
	OccurredAt    time.Time // zero means now
	Category      string
	Description   string
	Metadata      domain.Metadata
}

// RecordTransaction appends a transaction of kind to the user's ledger after
// checking its shape and that every referenced account belongs to the user.
func (s *Service) RecordTransaction(ctx context.Context, userID string, kind domain.TransactionKind, in TransactionInput) (*domain.Transaction, error) {
	now := s.now()
	tx := &domain.Transaction{
		ID:            s.newID(),
		UserID:        userID,
		Amount:        in.Amount,
		Kind:          kind,
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		OccurredAt:    in.OccurredAt,
		Category:      strings.TrimSpace(in.Category),
		Description:   strings.TrimSpace(in.Description),
		Metadata:      in.Metadata,
		CreatedAt:     now,
	}
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = now
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	for _, id := range []string{tx.FromAccountID, tx.ToAccountID} {
		if id == "" {
			continue
		}
		if _, err := s.store.GetAccount(ctx, userID, id); err != nil {
			return nil, fmt.Errorf("RecordTransaction: account %s: %w", id, err)
		}
	}

	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("RecordTransaction: inserting: %w", err)
	}
	return tx, nil
}

// ListTransactions returns the user's ledger, newest first. A zero limit means
// store.MaxListLimit.
func (s *Service) ListTransactions(ctx context.Context, userID string, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	if filter.Limit < 0 || filter.Limit > store.MaxListLimit {
		return nil, domain.Invalid("limit", "must be between 1 and %d", store.MaxListLimit)
	}
	if filter.Offset < 0 {
		return nil, domain.Invalid("offset", "must not be negative")
	}
	if filter.Kind != "" {
		if _, err := domain.ParseTransactionKind(string(filter.Kind)); err != nil {
			return nil, err
		}
	}
	if filter.Limit == 0 {
		filter.Limit = store.MaxListLimit
	}

	txs, err := s.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return txs, nil
}
