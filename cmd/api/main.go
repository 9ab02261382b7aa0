package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/moneyflow/internal/api"
	"github.com/dvloznov/moneyflow/internal/auth"
	"github.com/dvloznov/moneyflow/internal/categorizer"
	"github.com/dvloznov/moneyflow/internal/config"
	"github.com/dvloznov/moneyflow/internal/export"
	"github.com/dvloznov/moneyflow/internal/gcsuploader"
	infraBQ "github.com/dvloznov/moneyflow/internal/infra/bigquery"
	"github.com/dvloznov/moneyflow/internal/infra/sqlite"
	jobsmem "github.com/dvloznov/moneyflow/internal/jobs/inmemory"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/dvloznov/moneyflow/internal/service"
	"github.com/dvloznov/moneyflow/internal/store"
	storemem "github.com/dvloznov/moneyflow/internal/store/inmemory"
	"github.com/shopspring/decimal"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("MONEYFLOW_CONFIG"), "Path to a YAML config file (or set MONEYFLOW_CONFIG)")
		port       = flag.String("port", "", "HTTP server port, overrides server.port")
	)
	flag.Parse()

	bootLog := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Server.Port = *port
	}

	log, err := logger.Configure(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("Invalid log configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open ledger store")
	}
	defer st.Close()

	opts := []service.Option{service.WithLocation(cfg.Location())}
	if cfg.Gemini.Enabled {
		cat, err := categorizer.New(ctx, cfg.Gemini.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini categorizer")
		}
		opts = append(opts, service.WithSuggester(cat))
	} else {
		log.Info().Msg("Gemini disabled - category suggestions will return 503")
	}
	svc := service.New(st, opts...)

	deps := api.Dependencies{
		Service:       svc,
		Verifier:      auth.NewJWTVerifier(cfg.Auth.Secret, cfg.Auth.Audience, cfg.Auth.Issuer),
		URLExpiry:     cfg.Exports.URLExpiry,
		StorageDriver: cfg.Storage.Driver,
		Log:           log,
	}

	// Export job infrastructure
	jobStore := jobsmem.NewStore()
	deps.Jobs = jobStore
	var jobQueue *jobsmem.Queue
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if cfg.Exports.Bucket == "" {
		log.Warn().Msg("No exports bucket configured - ledger exports will be disabled")
	} else {
		gcsService, err := gcsuploader.NewGCSStorageService(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS storage service")
		}
		defer gcsService.Close()

		jobQueue = jobsmem.NewQueue(cfg.Exports.QueueSize, jobStore, jobsmem.WithWorkers(cfg.Exports.Workers))
		exporter := export.NewExporter(st, gcsService, cfg.Exports.Bucket)
		if err := jobQueue.Start(workerCtx, exporter.Handle); err != nil {
			log.Fatal().Err(err).Msg("Failed to start export workers")
		}
		log.Info().Int("workers", cfg.Exports.Workers).Str("bucket", cfg.Exports.Bucket).Msg("Started export workers")

		deps.Publisher = jobQueue
		deps.Storage = gcsService
	}

	// Amounts go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Storage.Driver).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if jobQueue != nil {
		cancelWorker()
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
		if err := jobQueue.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close job queue")
		}
	}

	log.Info().Msg("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverBigQuery:
		return infraBQ.NewStore(ctx, cfg.Storage.BigQuery.Project, cfg.Storage.BigQuery.Dataset)
	case config.DriverSQLite:
		return sqlite.NewStore(cfg.Storage.SQLite.Path, cfg.Storage.SQLite.LogMode)
	case config.DriverMemory:
		log := logger.FromContext(ctx)
		log.Warn().Msg("Using the in-memory store - data is lost on restart")
		return storemem.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
