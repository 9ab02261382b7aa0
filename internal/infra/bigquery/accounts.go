package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/moneyflow/internal/domain"
	"google.golang.org/api/iterator"
)

const accountColumns = `account_id, user_id, name, account_type, created_ts, updated_ts`

// CreateAccount streams a new account row.
func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	inserter := s.client.DatasetInProject(s.project, s.dataset).Table(accountsTable).Inserter()
	if err := inserter.Put(ctx, accountRow(account)); err != nil {
		return fmt.Errorf("CreateAccount: inserting row: %w", err)
	}
	return nil
}

func (s *Store) queryAccounts(ctx context.Context, where string, params []bigquery.QueryParameter, limit int) ([]*domain.Account, error) {
	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY created_ts, account_id
	`, accountColumns, s.table(accountsTable), where)
	if limit > 0 {
		sql += fmt.Sprintf("LIMIT %d", limit)
	}

	q := s.client.Query(sql)
	q.Parameters = params
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	var accounts []*domain.Account
	for {
		var row AccountRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}
		accounts = append(accounts, row.toDomain())
	}
	return accounts, nil
}

// GetAccount returns the account if it belongs to userID.
func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	accounts, err := s.queryAccounts(ctx, "user_id = @user_id AND account_id = @account_id", []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "account_id", Value: accountID},
	}, 1)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	return accounts[0], nil
}

// ListAccounts returns the user's accounts, oldest first.
func (s *Store) ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error) {
	accounts, err := s.queryAccounts(ctx, "user_id = @user_id", []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}, 0)
	if err != nil {
		return nil, fmt.Errorf("ListAccounts: %w", err)
	}
	return accounts, nil
}

// FindAccountByName returns the user's oldest account called name.
func (s *Store) FindAccountByName(ctx context.Context, userID, name string) (*domain.Account, error) {
	accounts, err := s.queryAccounts(ctx, "user_id = @user_id AND name = @name", []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "name", Value: name},
	}, 1)
	if err != nil {
		return nil, fmt.Errorf("FindAccountByName: %w", err)
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("account %q: %w", name, domain.ErrNotFound)
	}
	return accounts[0], nil
}
