// Package api assembles the HTTP handlers and middleware into the server's
// root handler.
package api

import (
	"net/http"
	"time"

	"github.com/dvloznov/moneyflow/internal/api/handlers"
	"github.com/dvloznov/moneyflow/internal/api/middleware"
	"github.com/dvloznov/moneyflow/internal/auth"
	"github.com/dvloznov/moneyflow/internal/gcs"
	"github.com/dvloznov/moneyflow/internal/jobs"
	"github.com/dvloznov/moneyflow/internal/service"
	"github.com/rs/zerolog"
)

// Dependencies are what the router wires into the handlers. Publisher and
// Storage may be nil, which disables exports.
type Dependencies struct {
	Service       *service.Service
	Verifier      auth.Verifier
	Jobs          jobs.JobStore
	Publisher     jobs.Publisher
	Storage       gcs.StorageService
	URLExpiry     time.Duration
	StorageDriver string
	Log           zerolog.Logger
}

// NewRouter returns the API's root handler.
func NewRouter(deps Dependencies) http.Handler {
	log := deps.Log
	svc := deps.Service

	accounts := handlers.NewAccountsHandler(svc, log)
	transactions := handlers.NewTransactionsHandler(svc, log)
	cashflow := handlers.NewCashFlowHandler(svc, log)
	investments := handlers.NewInvestmentsHandler(svc, log)
	exports := handlers.NewExportsHandler(deps.Publisher, deps.Jobs, deps.Storage, deps.URLExpiry, svc.Location(), log)
	health := handlers.NewHealthHandler(deps.StorageDriver)

	mux := http.NewServeMux()

	// Accounts
	mux.HandleFunc("GET /api/accounts", accounts.ListAccounts)
	mux.HandleFunc("POST /api/accounts", accounts.CreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", accounts.GetAccount)
	mux.HandleFunc("GET /api/accounts/{id}/balance", accounts.GetBalance)

	// Transactions
	mux.HandleFunc("GET /api/transactions", transactions.ListTransactions)
	mux.HandleFunc("POST /api/transactions/income", transactions.CreateIncome)
	mux.HandleFunc("POST /api/transactions/expense", transactions.CreateExpense)
	mux.HandleFunc("POST /api/transactions/transfer", transactions.CreateTransfer)
	mux.HandleFunc("POST /api/transactions/suggest-category", transactions.SuggestCategory)

	// Cash flow
	mux.HandleFunc("POST /api/cashflows/quick-entry", cashflow.QuickEntry)
	mux.HandleFunc("GET /api/cashflows/analytics/today", cashflow.Today)
	mux.HandleFunc("GET /api/cashflows/analytics/recent", cashflow.Recent)
	mux.HandleFunc("GET /api/cashflows/analytics/timeseries", cashflow.TimeSeries)
	mux.HandleFunc("GET /api/cashflows/analytics/by-category", cashflow.ByCategory)

	// Investments
	mux.HandleFunc("GET /api/investments", investments.ListInvestments)
	mux.HandleFunc("POST /api/investments", investments.CreateInvestment)
	mux.HandleFunc("GET /api/investments/{id}", investments.GetInvestment)
	mux.HandleFunc("DELETE /api/investments/{id}", investments.DeleteInvestment)
	mux.HandleFunc("POST /api/investments/{id}/value", investments.UpdateValue)
	mux.HandleFunc("POST /api/investments/{id}/cashout", investments.CashOut)

	// Exports
	mux.HandleFunc("GET /api/exports", exports.ListExports)
	mux.HandleFunc("POST /api/exports", exports.CreateExport)
	mux.HandleFunc("GET /api/exports/{id}", exports.GetExport)
	mux.HandleFunc("GET /api/exports/{id}/download", exports.DownloadExport)

	mux.HandleFunc("GET /health", health.Health)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not Found")
	})

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(
					middleware.Auth(deps.Verifier)(mux),
				),
			),
		),
	)
}
