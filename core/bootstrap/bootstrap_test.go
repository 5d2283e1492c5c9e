package bootstrap

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	coreconfig "github.com/m3rciful/filtrbot/core/config"
	coredatabase "github.com/m3rciful/filtrbot/core/database"
	"github.com/m3rciful/filtrbot/core/filters"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunWithoutDatabaseUsesMemoryStore(t *testing.T) {
	res, err := Run(Options{Config: &coreconfig.Config{}, LoggerInit: noLogger})
	if err != nil {
		t.Fatal(err)
	}
	if res.DB != nil {
		t.Fatal("unexpected database handle")
	}
	if _, ok := res.Store.(*filters.MemoryStore); !ok {
		t.Fatalf("store = %T, want *filters.MemoryStore", res.Store)
	}
	if err := res.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestRunWithDatabase(t *testing.T) {
	var migrated bool
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "localhost"},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.Open("sqlite3", ":memory:")
		},
		Migrate: func(coredatabase.Config) error {
			migrated = true
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()
	if !migrated {
		t.Fatal("migrations did not run")
	}
	if _, ok := res.Store.(*coredatabase.FilterStore); !ok {
		t.Fatalf("store = %T, want *database.FilterStore", res.Store)
	}
}

func TestRunPropagatesMigrationError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "localhost"},
		LoggerInit: noLogger,
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			return sqlx.Open("sqlite3", ":memory:")
		},
		Migrate: func(coredatabase.Config) error { return boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
