package service

import (
	"context"
	"fmt"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
	"github.com/shopspring/decimal"
)

// CreateAccount validates and stores a new account.
func (s *Service) CreateAccount(ctx context.Context, userID, name string, typ domain.AccountType) (*domain.Account, error) {
	now := s.now()
	account := &domain.Account{
		ID:        s.newID(),
		UserID:    userID,
		Name:      name,
		Type:      typ,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("CreateAccount: %w", err)
	}
	return account, nil
}

// GetAccount returns one of the user's accounts.
func (s *Service) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return s.store.GetAccount(ctx, userID, accountID)
}

// ListAccounts returns every account of the user with its balance. The ledger is
// read once and each balance derived from it.
func (s *Service) ListAccounts(ctx context.Context, userID string) ([]domain.AccountWithBalance, error) {
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: listing accounts: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: listing transactions: %w", err)
	}

	result := make([]domain.AccountWithBalance, 0, len(accounts))
	for _, a := range accounts {
		result = append(result, domain.AccountWithBalance{Account: a, Balance: domain.Balance(a.ID, txs)})
	}
	return result, nil
}

// AccountBalance derives the balance of one account from the ledger. An unknown
// or foreign account is domain.ErrNotFound, never a zero balance.
func (s *Service) AccountBalance(ctx context.Context, userID, accountID string) (decimal.Decimal, error) {
	if _, err := s.store.GetAccount(ctx, userID, accountID); err != nil {
		return decimal.Zero, err
	}
	txs, err := s.store.ListTransactions(ctx, userID, store.TransactionFilter{AccountID: accountID})
	if err != nil {
		return decimal.Zero, fmt.Errorf("AccountBalance: listing transactions: %w", err)
	}
	return domain.Balance(accountID, txs), nil
}
