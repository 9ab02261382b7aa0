package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/gcs"
	"github.com/dvloznov/moneyflow/internal/jobs"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/dvloznov/moneyflow/internal/store"
)

// LedgerReader is the part of store.Store an export needs.
type LedgerReader interface {
	ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error)
	ListTransactions(ctx context.Context, userID string, filter store.TransactionFilter) ([]*domain.Transaction, error)
}

// Exporter processes export jobs.
type Exporter struct {
	ledger  LedgerReader
	storage gcs.StorageService
	bucket  string
}

// NewExporter creates an Exporter writing into bucket.
func NewExporter(ledger LedgerReader, storage gcs.StorageService, bucket string) *Exporter {
	return &Exporter{ledger: ledger, storage: storage, bucket: bucket}
}

// ObjectName is where the file of job is stored inside the bucket.
func ObjectName(job *jobs.ExportJob) string {
	return fmt.Sprintf("exports/%s/%s.%s", job.UserID, job.JobID, job.Format)
}

// Handle is a jobs.JobHandler. On success job.GCSURI and job.RowCount are set.
func (e *Exporter) Handle(ctx context.Context, j jobs.Job) error {
	job, ok := j.(*jobs.ExportJob)
	if !ok {
		return fmt.Errorf("unexpected job type: %T", j)
	}

	filter := store.TransactionFilter{}
	if job.From != nil {
		filter.From = *job.From
	}
	if job.To != nil {
		filter.To = *job.To
	}
	txs, err := e.ledger.ListTransactions(ctx, job.UserID, filter)
	if err != nil {
		return fmt.Errorf("Handle: listing transactions: %w", err)
	}
	accounts, err := e.ledger.ListAccounts(ctx, job.UserID)
	if err != nil {
		return fmt.Errorf("Handle: listing accounts: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	var buf bytes.Buffer
	if err := Render(&buf, job.Format, txs, names); err != nil {
		return fmt.Errorf("Handle: %w", err)
	}

	uri, err := e.storage.Upload(ctx, e.bucket, ObjectName(job), ContentType(job.Format), &buf)
	if err != nil {
		return fmt.Errorf("Handle: uploading: %w", err)
	}
	job.GCSURI = uri
	job.RowCount = len(txs)

	log := logger.FromContext(ctx)
	log.Info().
		Str("job_id", job.JobID).
		Str("gcs_uri", uri).
		Int("rows", len(txs)).
		Msg("Ledger export written")
	return nil
}
