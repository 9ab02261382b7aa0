package notionsync

import (
	"context"

	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/store"
	"github.com/jomei/notionapi"
)

// NotionService is the subset of the Notion API the mirror needs.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	// ArchivePage moves a page to the trash. Notion has no hard delete.
	ArchivePage(ctx context.Context, pageID string) error
}

// LedgerReader is the read side of the ledger store.
type LedgerReader interface {
	ListAccounts(ctx context.Context, userID string) ([]*domain.Account, error)
	ListTransactions(ctx context.Context, userID string, filter store.TransactionFilter) ([]*domain.Transaction, error)
}
