// Package store defines the persistence contracts of the ledger. Every method
// that reads or writes user data takes the owner's user ID and filters by it;
// an entity owned by someone else is reported as domain.ErrNotFound.
package store

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/dvloznov/moneyflow/internal/store Store

import (
	"context"
	"time"

	"github.com/dvloznov/moneyflow/internal/domain"
)

// MaxListLimit caps the page size of ListTransactions.
const MaxListLimit = 100

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	Kind      domain.TransactionKind
	AccountID string    // matches either side of the movement
	From      time.Time // inclusive
	To        time.Time // exclusive
	Limit     int
	Offset    int
}

// Matches reports whether tx passes the filter, ignoring paging.
func (f TransactionFilter) Matches(tx *domain.Transaction) bool {
	if f.Kind != "" && tx.Kind != f.Kind {
		return false
	}
	if f.AccountID != "" && tx.FromAccountID != f.AccountID && tx.ToAccountID != f.AccountID {
		return false
	}
	if !f.From.IsZero() && tx.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !tx.OccurredAt.Before(f.To) {
		return false
	}
	return true
}

// AccountStore persists accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error)
	// FindAccountByName returns domain.ErrNotFound when the user has no such account.
	FindAccountByName(ctx context.Context, userID, name string) (*domain.Account, error)
}

// TransactionStore persists the append-only ledger. There is no update or
// delete.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	// ListTransactions returns matching rows newest first.
	ListTransactions(ctx context.Context, userID string, filter TransactionFilter) ([]*domain.Transaction, error)
}

// InvestmentStore persists investments and their value history.
type InvestmentStore interface {
	CreateInvestment(ctx context.Context, inv *domain.Investment) error
	GetInvestment(ctx context.Context, userID, investmentID string) (*domain.Investment, error)
	ListInvestments(ctx context.Context, userID string) ([]*domain.Investment, error)
	UpdateInvestment(ctx context.Context, inv *domain.Investment) error
	// DeleteInvestment removes the investment and its history. Linked ledger rows stay.
	DeleteInvestment(ctx context.Context, userID, investmentID string) error
	AppendSnapshot(ctx context.Context, snap *domain.ValueSnapshot) error
	// ListSnapshots returns history ascending by RecordedAt.
	ListSnapshots(ctx context.Context, investmentID string) ([]*domain.ValueSnapshot, error)
}

// Store is the full persistence surface used by the service layer.
type Store interface {
	AccountStore
	TransactionStore
	InvestmentStore
	Close() error
}
