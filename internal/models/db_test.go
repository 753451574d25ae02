package models

import (
	"path/filepath"
	"testing"

	"github.com/bazaar-next/internal/config"
)

func TestWithSQLitePragmas(t *testing.T) {
	cases := map[string]string{
		"./db/bazaar.db":                  "./db/bazaar.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		"file:x.db?cache=shared":          "file:x.db?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)",
		":memory:":                        ":memory:",
		"file:t?mode=memory&cache=shared": "file:t?mode=memory&cache=shared",
		"a.db?_pragma=foreign_keys(1)":    "a.db?_pragma=foreign_keys(1)",
	}
	for in, want := range cases {
		if got := withSQLitePragmas(in); got != want {
			t.Fatalf("withSQLitePragmas(%q) want %q got %q", in, want, got)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.DatabaseConfig{Driver: "oracle", DSN: "x"}, false); err == nil {
		t.Fatalf("unknown driver should be rejected")
	}
}

func TestOpenSQLiteFileAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bazaar.db")
	db, err := Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    path,
		Pool:   config.DatabasePoolConfig{MaxOpenConns: 1, MaxIdleConns: 1},
	}, false)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := MigrateWith(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	var mode string
	if err := db.Raw("PRAGMA journal_mode").Scan(&mode).Error; err != nil {
		t.Fatalf("read journal mode failed: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal mode want wal got %s", mode)
	}
	if err := MigrateWith(nil); err == nil {
		t.Fatalf("nil db should fail migrate")
	}
}
