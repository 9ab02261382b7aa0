package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
	"google.golang.org/api/iterator"
)

const transactionColumns = `transaction_id, user_id, amount, transaction_type, occurred_at,
			from_account_id, to_account_id, category, description, metadata, created_ts`

// InsertTransaction streams one ledger row.
func (s *Store) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	row, err := transactionRow(tx)
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}

	inserter := s.client.DatasetInProject(s.project, s.dataset).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}
	return nil
}

// transactionQuery builds the SELECT behind ListTransactions.
func transactionQuery(table, userID string, f store.TransactionFilter) (string, []bigquery.QueryParameter) {
	where := []string{"user_id = @user_id"}
	params := []bigquery.QueryParameter{{Name: "user_id", Value: userID}}

	if f.Kind != "" {
		where = append(where, "transaction_type = @transaction_type")
		params = append(params, bigquery.QueryParameter{Name: "transaction_type", Value: string(f.Kind)})
	}
	if f.AccountID != "" {
		where = append(where, "(from_account_id = @account_id OR to_account_id = @account_id)")
		params = append(params, bigquery.QueryParameter{Name: "account_id", Value: f.AccountID})
	}
	if !f.From.IsZero() {
		where = append(where, "occurred_at >= @from_ts")
		params = append(params, bigquery.QueryParameter{Name: "from_ts", Value: f.From.UTC()})
	}
	if !f.To.IsZero() {
		where = append(where, "occurred_at < @to_ts")
		params = append(params, bigquery.QueryParameter{Name: "to_ts", Value: f.To.UTC()})
	}

	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY occurred_at DESC, created_ts DESC, transaction_id
	`, transactionColumns, table, strings.Join(where, "\n\t\t  AND "))

	if f.Limit > 0 {
		sql += "LIMIT @limit OFFSET @offset"
		params = append(params,
			bigquery.QueryParameter{Name: "limit", Value: f.Limit},
			bigquery.QueryParameter{Name: "offset", Value: f.Offset},
		)
	} else if f.Offset > 0 {
		sql += "LIMIT 9223372036854775807 OFFSET @offset"
		params = append(params, bigquery.QueryParameter{Name: "offset", Value: f.Offset})
	}
	return sql, params
}

// ListTransactions returns the user's matching rows, newest first.
func (s *Store) ListTransactions(ctx context.Context, userID string, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	sql, params := transactionQuery(s.table(transactionsTable), userID, filter)
	q := s.client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: query read: %w", err)
	}

	var txs []*domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iter next: %w", err)
		}
		tx, err := r.toDomain()
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
