package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/moneyflow/internal/config"
	infraBQ "github.com/dvloznov/moneyflow/internal/infra/bigquery"
	"github.com/dvloznov/moneyflow/internal/infra/sqlite"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/dvloznov/moneyflow/internal/notionsync"
	"github.com/dvloznov/moneyflow/internal/store"
)

func main() {
	log := logger.New()

	configPath := flag.String("config", os.Getenv("MONEYFLOW_CONFIG"), "Path to a YAML config file (or set MONEYFLOW_CONFIG)")
	userID := flag.String("user-id", "", "User whose ledger is mirrored (required)")
	startDateStr := flag.String("start-date", "", "Start date in YYYY-MM-DD format (optional)")
	endDateStr := flag.String("end-date", "", "End date in YYYY-MM-DD format, inclusive (optional)")
	notionToken := flag.String("notion-token", "", "Notion API token, overrides notion.token")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID, overrides notion.database_id")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	cfg, err := config.Read(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}

	if *userID == "" {
		log.Fatal().Msg("Error: --user-id is required")
	}
	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: a Notion token is required (--notion-token or notion.token)")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: a Notion database ID is required (--notion-db-id or notion.database_id)")
	}

	loc := cfg.Location()
	var from, to time.Time
	if *startDateStr != "" {
		d, err := time.ParseInLocation("2006-01-02", *startDateStr, loc)
		if err != nil {
			log.Fatal().Err(err).Str("start_date", *startDateStr).Msg("Error: invalid start-date format, expected YYYY-MM-DD")
		}
		from = d
	}
	if *endDateStr != "" {
		d, err := time.ParseInLocation("2006-01-02", *endDateStr, loc)
		if err != nil {
			log.Fatal().Err(err).Str("end_date", *endDateStr).Msg("Error: invalid end-date format, expected YYYY-MM-DD")
		}
		to = d.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		log.Fatal().Time("start_date", from).Time("end_date", to).Msg("Error: end-date must not be before start-date")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	ledger, err := openLedger(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open ledger store")
	}
	defer ledger.Close()

	syncer := notionsync.NewSyncer(notionsync.NewClient(cfg.Notion.Token), ledger, cfg.Notion.DatabaseID, *dryRun)
	res, err := syncer.SyncTransactions(ctx, *userID, from, to)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Printf("Sync completed: %d created, %d updated, %d archived, %d unchanged, %d failed.\n",
		res.Created, res.Updated, res.Archived, res.Skipped, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

// openLedger opens a persistent store; the in-memory driver has nothing to mirror.
func openLedger(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverBigQuery:
		return infraBQ.NewStore(ctx, cfg.Storage.BigQuery.Project, cfg.Storage.BigQuery.Dataset)
	case config.DriverSQLite:
		return sqlite.NewStore(cfg.Storage.SQLite.Path, cfg.Storage.SQLite.LogMode)
	default:
		return nil, fmt.Errorf("storage driver %q cannot be mirrored, use bigquery or sqlite", cfg.Storage.Driver)
	}
}
