package migrations

import (
	"strings"
	"testing"
)

func TestInitMigrationContainsRequiredTablesAndIndexes(t *testing.T) {
	body, err := embeddedFS.ReadFile("sql/0001_init.up.sql")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	sql := string(body)
	requiredSnippets := []string{
		"CREATE TABLE IF NOT EXISTS institutions",
		"CREATE TABLE IF NOT EXISTS financials",
		"CREATE TABLE IF NOT EXISTS locations",
		"CREATE TABLE IF NOT EXISTS history",
		"CREATE TABLE IF NOT EXISTS failures",
		"UNIQUE(cert, repdte)",
		"UNIQUE(cert, uninum)",
		"CREATE INDEX IF NOT EXISTS idx_institutions_active",
		"CREATE INDEX IF NOT EXISTS idx_financials_cert",
		"CREATE INDEX IF NOT EXISTS idx_financials_date",
		"CREATE INDEX IF NOT EXISTS idx_failures_date",
	}

	for _, snippet := range requiredSnippets {
		if !strings.Contains(sql, snippet) {
			t.Fatalf("migration missing required snippet: %s", snippet)
		}
	}
}

func TestEmbeddedMigrationsLoad(t *testing.T) {
	items, err := loadMigrations(embeddedFS)
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	if len(items) == 0 {
		t.Fatal("expected at least one embedded migration")
	}
	if items[0].Version != 1 {
		t.Fatalf("first migration version = %d, want 1", items[0].Version)
	}
	if strings.TrimSpace(items[0].DownSQL) == "" {
		t.Fatal("init migration is missing down SQL")
	}
}
