package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMigrations_ParsesAndSorts(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"002_units.sql":  "CREATE TABLE b (id int);",
		"001_core.sql":   "CREATE TABLE a (id int);",
		"notes.txt":      "ignore me",
		"README.sql":     "no numeric prefix",
		"010_extras.sql": "CREATE TABLE c (id int);",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	m := NewMigrator(nil, dir)
	migrations, err := m.LoadMigrations()
	if err != nil {
		t.Fatalf("LoadMigrations() error: %v", err)
	}

	if len(migrations) != 3 {
		t.Fatalf("got %d migrations, want 3", len(migrations))
	}
	wantVersions := []int{1, 2, 10}
	for i, mig := range migrations {
		if mig.Version != wantVersions[i] {
			t.Errorf("migration %d version = %d, want %d", i, mig.Version, wantVersions[i])
		}
	}
	if migrations[0].SQL != "CREATE TABLE a (id int);" {
		t.Errorf("migration 1 SQL = %q", migrations[0].SQL)
	}
}

func TestLoadMigrations_MissingDir(t *testing.T) {
	m := NewMigrator(nil, "/nonexistent/migrations")
	if _, err := m.LoadMigrations(); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestConnFromContext_Empty(t *testing.T) {
	if conn := ConnFromContext(context.Background()); conn != nil {
		t.Errorf("ConnFromContext on empty context = %v, want nil", conn)
	}
}

func TestPoolStats_Fields(t *testing.T) {
	stats := &PoolStats{
		TotalConns: 10,
		IdleConns:  5,
		MaxConns:   20,
		Healthy:    true,
	}
	if !stats.Healthy {
		t.Error("expected Healthy true")
	}
	if stats.TotalConns != 10 {
		t.Errorf("TotalConns = %d, want 10", stats.TotalConns)
	}
}
