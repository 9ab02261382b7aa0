package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dvloznov/moneyflow/internal/client"
	"github.com/dvloznov/moneyflow/internal/jobs"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/rs/zerolog"
)

const (
	envAPIURL   = "MONEYFLOW_API_URL"
	envToken    = "MONEYFLOW_TOKEN"
	envTimezone = "MONEYFLOW_TZ"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "quick-entry":
		runQuickEntry(log)
	case "today":
		runToday(log)
	case "recent":
		runRecent(log)
	case "balance":
		runBalance(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Moneyflow CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  quick-entry  Log a cash-in or cash-out on the allowance account")
	fmt.Println("  today        Show today's inflow and outflow")
	fmt.Println("  recent       List the most recent entries")
	fmt.Println("  balance      Show account balances")
	fmt.Println("  export       Export the ledger to CSV or XLSX")
	fmt.Println("  help         Show this help message")
	fmt.Printf("\nThe API is read from %s (default http://localhost:8080), the bearer token from %s\n", envAPIURL, envToken)
	fmt.Printf("and the timezone from %s.\n", envTimezone)
}

// newSession builds the API client and a cached dashboard view over it.
func newSession(log zerolog.Logger) (*client.Client, *client.Dashboard) {
	baseURL := os.Getenv(envAPIURL)
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	token := os.Getenv(envToken)
	if token == "" {
		log.Fatal().Msgf("Error: %s is required", envToken)
	}

	var opts []client.Option
	if tz := os.Getenv(envTimezone); tz != "" {
		opts = append(opts, client.WithTimezone(tz))
	}
	api := client.New(baseURL, token, opts...)
	return api, client.NewDashboard(api, client.NewCache())
}

func commandContext(log zerolog.Logger, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return logger.WithContext(ctx, log), cancel
}

func runQuickEntry(log zerolog.Logger) {
	fs := flag.NewFlagSet("quick-entry", flag.ExitOnError)
	amount := fs.String("amount", "", "Amount, thousands separators allowed (required)")
	in := fs.Bool("in", false, "Record a cash-in instead of a cash-out")
	category := fs.String("category", "", "Category label")
	tags := fs.String("tags", "", "Comma-separated tags")
	fs.Parse(os.Args[2:])

	if *amount == "" {
		log.Fatal().Msg("Error: --amount is required")
	}

	req := client.QuickEntryRequest{
		Amount:       *amount,
		Type:         "cash_out",
		Category:     *category,
		SelectedTags: splitTags(*tags),
	}
	if *in {
		req.Type = "cash_in"
	}

	_, dash := newSession(log)
	ctx, cancel := commandContext(log, 30*time.Second)
	defer cancel()

	// Load the dashboard first so the entry shows up optimistically, as in the UI.
	if _, err := dash.Today(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not load today's summary")
	}
	if _, err := dash.Recent(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not load recent entries")
	}

	tx, err := dash.SubmitQuickEntry(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("Quick entry failed")
	}
	fmt.Printf("Recorded %s %s (%s)\n", tx.Kind, tx.Amount.StringFixed(2), tx.ID)

	if summary, err := dash.Today(ctx); err == nil {
		fmt.Printf("Today: in %s, out %s\n", summary.Inflow.StringFixed(2), summary.Outflow.StringFixed(2))
	}
}

func splitTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func runToday(log zerolog.Logger) {
	_, dash := newSession(log)
	ctx, cancel := commandContext(log, 30*time.Second)
	defer cancel()

	summary, err := dash.Today(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load today's summary")
	}
	fmt.Printf("Inflow:  %s\n", summary.Inflow.StringFixed(2))
	fmt.Printf("Outflow: %s\n", summary.Outflow.StringFixed(2))
	fmt.Printf("Net:     %s\n", summary.Inflow.Sub(summary.Outflow).StringFixed(2))
}

func runRecent(log zerolog.Logger) {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of entries to show")
	fs.Parse(os.Args[2:])

	_, dash := newSession(log)
	ctx, cancel := commandContext(log, 30*time.Second)
	defer cancel()

	entries, err := dash.Recent(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load recent entries")
	}
	if *limit > 0 && len(entries) > *limit {
		entries = entries[:*limit]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTYPE\tAMOUNT\tCATEGORY\tTAGS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.LoggedAt.Local().Format("2006-01-02 15:04"),
			e.Type,
			e.Amount.StringFixed(2),
			e.Metadata.CategoryName,
			strings.Join(e.Metadata.Tags, ", "))
	}
	w.Flush()
}

func runBalance(log zerolog.Logger) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	accountID := fs.String("account-id", "", "Only show this account")
	fs.Parse(os.Args[2:])

	api, _ := newSession(log)
	ctx, cancel := commandContext(log, 30*time.Second)
	defer cancel()

	if *accountID != "" {
		balance, err := api.AccountBalance(ctx, *accountID)
		if err != nil {
			log.Fatal().Err(err).Str("account_id", *accountID).Msg("Failed to load balance")
		}
		fmt.Println(balance.StringFixed(2))
		return
	}

	accounts, err := api.ListAccounts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list accounts")
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE")
	for _, a := range accounts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, a.Balance.StringFixed(2))
	}
	w.Flush()
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "csv", "Export format: csv or xlsx")
	startDate := fs.String("start-date", "", "Start date in YYYY-MM-DD format")
	endDate := fs.String("end-date", "", "End date in YYYY-MM-DD format (inclusive)")
	wait := fs.Duration("wait", 2*time.Minute, "How long to wait for the export to finish (0 to return immediately)")
	fs.Parse(os.Args[2:])

	api, _ := newSession(log)
	ctx, cancel := commandContext(log, *wait+30*time.Second)
	defer cancel()

	job, err := api.CreateExport(ctx, jobs.ExportFormat(*format), *startDate, *endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create export")
	}
	log.Info().Str("job_id", job.JobID).Msg("Export queued")
	if *wait == 0 {
		fmt.Println(job.JobID)
		return
	}

	deadline := time.Now().Add(*wait)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		status, err := api.GetExport(ctx, job.JobID)
		if err != nil {
			log.Fatal().Err(err).Str("job_id", job.JobID).Msg("Failed to poll export")
		}
		switch status.Job.Status {
		case jobs.JobStatusCompleted:
			fmt.Printf("Exported %d rows to %s\n", status.Job.RowCount, status.Job.GCSURI)
			if status.DownloadURL != "" {
				fmt.Printf("Download: %s\n", status.DownloadURL)
			}
			return
		case jobs.JobStatusFailed:
			log.Fatal().Str("job_id", job.JobID).Str("error", status.Job.Error).Msg("Export failed")
		}
		if time.Now().After(deadline) {
			log.Fatal().Str("job_id", job.JobID).Str("status", string(status.Job.Status)).Msg("Timed out waiting for export")
		}
		select {
		case <-ctx.Done():
			log.Fatal().Err(ctx.Err()).Msg("Export wait cancelled")
		case <-ticker.C:
		}
	}
}
