package main

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_init_schema_migrations.sql", true, 1, "init_schema_migrations"},
		{"0012_create_transactions.sql", true, 12, "create_transactions"},
		{"001_invalid.sql", false, 0, ""},
		{"0001_test", false, 0, ""},
		{"0001.sql", false, 0, ""},
		{"invalid_0001_test.sql", false, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			m, ok := parseFilename(tt.filename)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.Equal(t, tt.version, m.Version)
				assert.Equal(t, tt.name, m.Name)
			}
		})
	}
}

func TestReadMigrations(t *testing.T) {
	raw := "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.accounts` (id STRING);"
	fsys := fstest.MapFS{
		"0002_accounts.sql":  {Data: []byte(raw)},
		"0001_init.sql":      {Data: []byte("SELECT 1;")},
		"README.md":          {Data: []byte("notes")},
		"archive/0003_x.sql": {Data: []byte("SELECT 3;")},
	}

	migrations, err := readMigrations(fsys, "proj", "ds")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "CREATE TABLE `proj.ds.accounts` (id STRING);", migrations[1].SQL)
	assert.Equal(t, fmt.Sprintf("%x", sha256.Sum256([]byte(raw))), migrations[1].Checksum)

	other, err := readMigrations(fsys, "other", "other")
	require.NoError(t, err)
	assert.Equal(t, migrations[1].Checksum, other[1].Checksum, "checksum ignores the target dataset")
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1;")},
		"0001_b.sql": {Data: []byte("SELECT 2;")},
	}
	_, err := readMigrations(fsys, "p", "d")
	assert.ErrorContains(t, err, "duplicate migration version 0001")
}

func TestPending(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Name: "init", Checksum: "aaa"},
		{Version: 2, Name: "accounts", Checksum: "bbb"},
		{Version: 3, Name: "transactions", Checksum: "ccc"},
	}

	todo, err := pending(migrations, []AppliedMigration{{Version: 1, Checksum: "aaa"}, {Version: 2}})
	require.NoError(t, err)
	require.Len(t, todo, 1)
	assert.Equal(t, 3, todo[0].Version)

	_, err = pending(migrations, []AppliedMigration{{Version: 2, Checksum: "changed"}})
	assert.ErrorContains(t, err, "0002_accounts was modified")
}

func TestRepositoryMigrations(t *testing.T) {
	migrations, err := readMigrations(os.DirFS("../../migrations/bigquery"), "p", "d")
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		assert.Equal(t, i+1, m.Version, "versions are contiguous")
		assert.NotContains(t, m.SQL, "{{", "%s has unreplaced placeholders", m.Filename)
	}

	var all strings.Builder
	for _, m := range migrations {
		all.WriteString(m.SQL)
	}
	for _, table := range []string{"accounts", "transactions", "investments", "investment_history"} {
		assert.Contains(t, all.String(), "`p.d."+table+"`")
	}
}
