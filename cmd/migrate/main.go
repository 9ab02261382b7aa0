package main

import (
	"context"
	"crypto/sha256"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/moneyflow/internal/logger"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

// Migration is one numbered SQL file.
type Migration struct {
	Version  int
	Name     string
	Filename string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int
	Name      string
	AppliedAt time.Time
	Checksum  string
	AppliedBy string
}

// migrationPattern matches 0001_name.sql.
var migrationPattern = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

func main() {
	var (
		projectID     = flag.String("project", os.Getenv("MONEYFLOW_STORAGE_BIGQUERY_PROJECT"), "GCP project ID (required)")
		datasetID     = flag.String("dataset", envOr("MONEYFLOW_STORAGE_BIGQUERY_DATASET", "moneyflow"), "BigQuery dataset ID")
		appliedBy     = flag.String("applied-by", "migrate-cli", "Name of the tool applying migrations")
		migrationsDir = flag.String("migrations", "migrations/bigquery", "Path to migrations directory")
		dryRun        = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	if *projectID == "" {
		log.Fatal().Msg("Error: --project is required")
	}

	dir, err := findMigrationsDir(*migrationsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to locate migrations")
	}
	migrations, err := readMigrations(os.DirFS(dir), *projectID, *datasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read migrations")
	}
	log.Info().Int("count", len(migrations)).Str("dir", dir).Msg("Found migration files")

	client, err := bigquery.NewClient(ctx, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery client")
	}
	defer client.Close()

	r := &runner{client: client, project: *projectID, dataset: *datasetID, appliedBy: *appliedBy, log: log}
	if err := r.run(ctx, migrations, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// findMigrationsDir also tries the path relative to the repository root, for
// runs from inside cmd/migrate.
func findMigrationsDir(dir string) (string, error) {
	for _, candidate := range []string{dir, "../../" + dir} {
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("migrations directory not found: %s", dir)
}

// readMigrations loads every well-formed migration in fsys, sorted by
// version, with {{PROJECT_ID}} and {{DATASET_ID}} substituted. Checksums are
// taken before substitution so they do not depend on the target dataset.
func readMigrations(fsys fs.FS, projectID, datasetID string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	seen := make(map[int]string)
	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}
		if prev, dup := seen[m.Version]; dup {
			return nil, fmt.Errorf("duplicate migration version %04d: %s and %s", m.Version, prev, m.Filename)
		}
		seen[m.Version] = m.Filename

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", entry.Name(), err)
		}
		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", projectID)
		m.SQL = strings.ReplaceAll(sql, "{{DATASET_ID}}", datasetID)
		m.Checksum = fmt.Sprintf("%x", sha256.Sum256(content))
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func parseFilename(name string) (Migration, bool) {
	matches := migrationPattern.FindStringSubmatch(name)
	if matches == nil {
		return Migration{}, false
	}
	version, err := strconv.Atoi(matches[1])
	if err != nil {
		return Migration{}, false
	}
	return Migration{Version: version, Name: matches[2], Filename: name}, true
}

// pending returns the migrations not yet applied. A migration whose file
// changed since it was applied is an error: applied SQL is immutable.
func pending(migrations []Migration, applied []AppliedMigration) ([]Migration, error) {
	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, am := range applied {
		byVersion[am.Version] = am
	}

	var out []Migration
	for _, m := range migrations {
		am, ok := byVersion[m.Version]
		if !ok {
			out = append(out, m)
			continue
		}
		if am.Checksum != "" && am.Checksum != m.Checksum {
			return nil, fmt.Errorf("migration %04d_%s was modified after it was applied", m.Version, m.Name)
		}
	}
	return out, nil
}

type runner struct {
	client    *bigquery.Client
	project   string
	dataset   string
	appliedBy string
	log       zerolog.Logger
}

func (r *runner) table() string {
	return fmt.Sprintf("`%s.%s.schema_migrations`", r.project, r.dataset)
}

func (r *runner) run(ctx context.Context, migrations []Migration, dryRun bool) error {
	if err := r.ensureDataset(ctx); err != nil {
		return err
	}
	if err := r.exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)
	`, r.table()), nil); err != nil {
		return fmt.Errorf("ensuring schema_migrations: %w", err)
	}

	applied, err := r.applied(ctx)
	if err != nil {
		return err
	}
	todo, err := pending(migrations, applied)
	if err != nil {
		return err
	}
	if len(todo) == 0 {
		r.log.Info().Msg("No new migrations to apply. Database is up to date.")
		return nil
	}

	for _, m := range todo {
		if dryRun {
			r.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("[DRY RUN] Would apply migration")
			continue
		}
		r.log.Info().Int("version", m.Version).Str("name", m.Name).Msg("Applying migration")
		if err := r.exec(ctx, m.SQL, nil); err != nil {
			return fmt.Errorf("executing %s: %w", m.Filename, err)
		}
		if err := r.exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (version, name, applied_at, checksum, applied_by)
			VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)
		`, r.table()), []bigquery.QueryParameter{
			{Name: "version", Value: m.Version},
			{Name: "name", Value: m.Name},
			{Name: "checksum", Value: m.Checksum},
			{Name: "applied_by", Value: r.appliedBy},
		}); err != nil {
			return fmt.Errorf("recording %s: %w", m.Filename, err)
		}
	}
	if !dryRun {
		r.log.Info().Int("applied", len(todo)).Msg("Migrations applied")
	}
	return nil
}

func (r *runner) ensureDataset(ctx context.Context) error {
	ds := r.client.DatasetInProject(r.project, r.dataset)
	if _, err := ds.Metadata(ctx); err == nil {
		return nil
	}
	if err := ds.Create(ctx, &bigquery.DatasetMetadata{Description: "moneyflow ledger"}); err != nil {
		if strings.Contains(err.Error(), "Already Exists") {
			return nil
		}
		return fmt.Errorf("creating dataset %s: %w", r.dataset, err)
	}
	r.log.Info().Str("dataset", r.dataset).Msg("Created dataset")
	return nil
}

func (r *runner) exec(ctx context.Context, sql string, params []bigquery.QueryParameter) error {
	q := r.client.Query(sql)
	q.Parameters = params
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func (r *runner) applied(ctx context.Context) ([]AppliedMigration, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT version, name, applied_at, checksum, applied_by
		FROM %s
		ORDER BY version ASC
	`, r.table()))
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}

	var applied []AppliedMigration
	for {
		var row struct {
			Version   int64               `bigquery:"version"`
			Name      string              `bigquery:"name"`
			AppliedAt time.Time           `bigquery:"applied_at"`
			Checksum  bigquery.NullString `bigquery:"checksum"`
			AppliedBy bigquery.NullString `bigquery:"applied_by"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating results: %w", err)
		}
		applied = append(applied, AppliedMigration{
			Version:   int(row.Version),
			Name:      row.Name,
			AppliedAt: row.AppliedAt,
			Checksum:  row.Checksum.StringVal,
			AppliedBy: row.AppliedBy.StringVal,
		})
	}
	return applied, nil
}
