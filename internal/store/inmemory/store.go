// Package inmemory is a map-backed store.Store. It is safe for concurrent use
// and loses everything on restart; it backs tests and local development.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*domain.Account
	transactions []*domain.Transaction
	investments  map[string]*domain.Investment
	snapshots    map[string][]*domain.ValueSnapshot
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts:    make(map[string]*domain.Account),
		investments: make(map[string]*domain.Investment),
		snapshots:   make(map[string][]*domain.ValueSnapshot),
	}
}

func copyTransaction(tx *domain.Transaction) *domain.Transaction {
	c := *tx
	if tx.Metadata.QuickEntry != nil {
		qe := *tx.Metadata.QuickEntry
		qe.Tags = append([]string(nil), qe.Tags...)
		c.Metadata.QuickEntry = &qe
	}
	if tx.Metadata.Investment != nil {
		im := *tx.Metadata.Investment
		c.Metadata.Investment = &im
	}
	return &c
}

// CreateAccount implements store.AccountStore.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	if account.ID == "" {
		return fmt.Errorf("CreateAccount: account ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return fmt.Errorf("CreateAccount: account %s already exists", account.ID)
	}
	c := *account
	s.accounts[account.ID] = &c
	return nil
}

// GetAccount implements store.AccountStore.
func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, domain.ErrNotFound
	}
	c := *a
	return &c, nil
}

// ListAccounts implements store.AccountStore. Accounts come back oldest first.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Account{}
	for _, a := range s.accounts {
		if a.UserID == userID {
			c := *a
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// FindAccountByName implements store.AccountStore.
func (s *Store) FindAccountByName(ctx context.Context, userID, name string) (*domain.Account, error) {
	accounts, err := s.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

// InsertTransaction implements store.TransactionStore.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("InsertTransaction: transaction ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = append(s.transactions, copyTransaction(tx))
	return nil
}

// ListTransactions implements store.TransactionStore.
func (s *Store) ListTransactions(ctx context.Context, userID string, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Transaction{}
	for _, tx := range s.transactions {
		if tx.UserID != userID || !filter.Matches(tx) {
			continue
		}
		result = append(result, copyTransaction(tx))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].OccurredAt.After(result[j].OccurredAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*domain.Transaction{}, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// CreateInvestment implements store.InvestmentStore.
func (s *Store) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	if inv.ID == "" {
		return fmt.Errorf("CreateInvestment: investment ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *inv
	s.investments[inv.ID] = &c
	return nil
}

// GetInvestment implements store.InvestmentStore.
func (s *Store) GetInvestment(ctx context.Context, userID, investmentID string) (*domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.investments[investmentID]
	if !ok || inv.UserID != userID {
		return nil, domain.ErrNotFound
	}
	c := *inv
	return &c, nil
}

// ListInvestments implements store.InvestmentStore. Newest first.
func (s *Store) ListInvestments(ctx context.Context, userID string) ([]*domain.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Investment{}
	for _, inv := range s.investments {
		if inv.UserID == userID {
			c := *inv
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// UpdateInvestment implements store.InvestmentStore.
func (s *Store) UpdateInvestment(ctx context.Context, inv *domain.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.investments[inv.ID]
	if !ok || existing.UserID != inv.UserID {
		return domain.ErrNotFound
	}
	c := *inv
	s.investments[inv.ID] = &c
	return nil
}

// DeleteInvestment implements store.InvestmentStore.
func (s *Store) DeleteInvestment(ctx context.Context, userID, investmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.investments[investmentID]
	if !ok || inv.UserID != userID {
		return domain.ErrNotFound
	}
	delete(s.investments, investmentID)
	delete(s.snapshots, investmentID)
	return nil
}

// AppendSnapshot implements store.InvestmentStore.
func (s *Store) AppendSnapshot(ctx context.Context, snap *domain.ValueSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.investments[snap.InvestmentID]; !ok {
		return domain.ErrNotFound
	}
	c := *snap
	s.snapshots[snap.InvestmentID] = append(s.snapshots[snap.InvestmentID], &c)
	return nil
}

// ListSnapshots implements store.InvestmentStore.
func (s *Store) ListSnapshots(ctx context.Context, investmentID string) ([]*domain.ValueSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.ValueSnapshot, 0, len(s.snapshots[investmentID]))
	for _, snap := range s.snapshots[investmentID] {
		c := *snap
		result = append(result, &c)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].RecordedAt.Before(result[j].RecordedAt)
	})
	return result, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
