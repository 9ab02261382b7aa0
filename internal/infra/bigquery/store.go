// Package bigquery is the BigQuery backend of store.Store. Ledger rows and
// accounts are append-only and streamed in; investments and their history are
// written with DML so that they can be updated and deleted later.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/moneyflow/internal/store"
)

const (
	accountsTable          = "accounts"
	transactionsTable      = "transactions"
	investmentsTable       = "investments"
	investmentHistoryTable = "investment_history"
)

// Store implements store.Store on BigQuery. It holds one client shared by all
// operations.
type Store struct {
	client  *bigquery.Client
	project string
	dataset string
}

// NewStore creates a BigQuery client for project using Application Default
// Credentials.
func NewStore(ctx context.Context, project, dataset string) (*Store, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewStore: creating client: %w", err)
	}
	return &Store{client: client, project: project, dataset: dataset}, nil
}

// Close closes the BigQuery client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// table returns the fully qualified, quoted name of a table.
func (s *Store) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", s.project, s.dataset, name)
}

// exec runs a DML statement and returns the number of affected rows.
func (s *Store) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := s.client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}

var _ store.Store = (*Store)(nil)
