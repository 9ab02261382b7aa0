// Package notionsync mirrors a user's ledger into a Notion database. The
// ledger is the source of truth: missing rows are created, rows whose amount
// was edited by hand are rewritten and rows with no ledger counterpart are
// archived.
package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/dvloznov/moneyflow/internal/store"
	"github.com/jomei/notionapi"
)

// pageSize is the largest page the Notion query API returns.
const pageSize = 100

// Result counts what a sync run did (or would do, on a dry run).
type Result struct {
	Created  int
	Updated  int
	Archived int
	Skipped  int
	Failed   int
}

type Syncer struct {
	notion     NotionService
	ledger     LedgerReader
	databaseID string
	dryRun     bool
}

func NewSyncer(notion NotionService, ledger LedgerReader, databaseID string, dryRun bool) *Syncer {
	return &Syncer{notion: notion, ledger: ledger, databaseID: databaseID, dryRun: dryRun}
}

// SyncTransactions mirrors the user's transactions that occurred in
// [from, to). Zero bounds are open. Per-page API failures are logged and
// counted; only failures to read either side abort the run.
func (s *Syncer) SyncTransactions(ctx context.Context, userID string, from, to time.Time) (Result, error) {
	log := logger.FromContext(ctx)
	var res Result

	accounts, err := s.ledger.ListAccounts(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("SyncTransactions: listing accounts: %w", err)
	}
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}

	// Validity is judged against the whole ledger so that pages outside the
	// window are never archived.
	all, err := s.ledger.ListTransactions(ctx, userID, store.TransactionFilter{})
	if err != nil {
		return res, fmt.Errorf("SyncTransactions: listing transactions: %w", err)
	}
	valid := make(map[string]bool, len(all))
	for _, tx := range all {
		valid[tx.ID] = true
	}

	pages, err := s.queryAllPages(ctx)
	if err != nil {
		return res, fmt.Errorf("SyncTransactions: %w", err)
	}
	log.Info().
		Int("ledger_rows", len(all)).
		Int("notion_pages", len(pages)).
		Bool("dry_run", s.dryRun).
		Msg("Starting Notion sync")

	existing := make(map[string]notionapi.Page, len(pages))
	for _, page := range pages {
		id := transactionID(page)
		if id != "" && valid[id] {
			if _, dup := existing[id]; !dup {
				existing[id] = page
				continue
			}
		}
		s.archive(ctx, page, id, &res)
	}

	for _, tx := range all {
		if !from.IsZero() && tx.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && !tx.OccurredAt.Before(to) {
			continue
		}

		page, ok := existing[tx.ID]
		switch {
		case ok && !amountDrifted(page, tx.Amount):
			res.Skipped++
		case s.dryRun && ok:
			log.Info().Str("transaction_id", tx.ID).Msg("[DRY RUN] Would update Notion page")
			res.Updated++
		case s.dryRun:
			log.Info().Str("transaction_id", tx.ID).Msg("[DRY RUN] Would create Notion page")
			res.Created++
		case ok:
			if _, err := s.notion.UpdatePage(ctx, string(page.ID), TransactionProperties(tx, names)); err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++
		default:
			created, err := s.notion.CreatePage(ctx, s.databaseID, TransactionProperties(tx, names))
			if err != nil {
				log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to create Notion page")
				res.Failed++
				continue
			}
			log.Debug().Str("transaction_id", tx.ID).Str("page_id", string(created.ID)).Msg("Created Notion page")
			res.Created++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("archived", res.Archived).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Notion sync completed")
	return res, nil
}

func (s *Syncer) archive(ctx context.Context, page notionapi.Page, txID string, res *Result) {
	log := logger.FromContext(ctx)
	if s.dryRun {
		log.Info().Str("transaction_id", txID).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
		res.Archived++
		return
	}
	if err := s.notion.ArchivePage(ctx, string(page.ID)); err != nil {
		log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
		res.Failed++
		return
	}
	res.Archived++
}

func (s *Syncer) queryAllPages(ctx context.Context) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor
	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: pageSize}
		if cursor != "" {
			req.StartCursor = cursor
		}
		resp, err := s.notion.QueryDatabase(ctx, s.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("querying pages: %w", err)
		}
		pages = append(pages, resp.Results...)
		if !resp.HasMore {
			return pages, nil
		}
		cursor = resp.NextCursor
	}
}
