package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/filtrbot/core/filters"
	"github.com/m3rciful/filtrbot/core/logger"
)

// FilterStore persists filter state in the disabled_filters and
// unloaded_filters tables. Queries are written with "?" placeholders and
// rebound for the driver, so the store also runs against sqlite in tests.
type FilterStore struct {
	db *sqlx.DB
}

var _ filters.Store = (*FilterStore)(nil)

// NewFilterStore wraps db.
func NewFilterStore(db *sqlx.DB) *FilterStore {
	return &FilterStore{db: db}
}

// table maps a collection onto its table; collection names are never
// interpolated into SQL unless they appear here.
func table(coll filters.Collection) (string, error) {
	switch coll {
	case filters.DisabledFilters:
		return "disabled_filters", nil
	case filters.UnloadedFilters:
		return "unloaded_filters", nil
	}
	return "", fmt.Errorf("unknown filter collection %q", coll)
}

// FindAll implements filters.Store.
func (s *FilterStore) FindAll(ctx context.Context, coll filters.Collection) ([]string, error) {
	t, err := table(coll)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	var names []string
	err = s.db.SelectContext(ctx, &names, "SELECT filter FROM "+t+" ORDER BY id")
	s.trace(ctx, "find_all", coll, start, err)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", t, err)
	}
	return names, nil
}

// InsertOne implements filters.Store.
func (s *FilterStore) InsertOne(ctx context.Context, coll filters.Collection, name string) error {
	t, err := table(coll)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = s.db.ExecContext(ctx, s.db.Rebind("INSERT INTO "+t+" (filter) VALUES (?)"), name)
	s.trace(ctx, "insert_one", coll, start, err, slog.String("filter", name))
	if err != nil {
		return fmt.Errorf("insert %s: %w", t, err)
	}
	return nil
}

// DeleteOne implements filters.Store. Only the oldest matching row is removed.
func (s *FilterStore) DeleteOne(ctx context.Context, coll filters.Collection, name string) error {
	t, err := table(coll)
	if err != nil {
		return err
	}
	query := s.db.Rebind("DELETE FROM " + t + " WHERE id = (SELECT id FROM " + t + " WHERE filter = ? ORDER BY id LIMIT 1)")
	start := time.Now()
	_, err = s.db.ExecContext(ctx, query, name)
	s.trace(ctx, "delete_one", coll, start, err, slog.String("filter", name))
	if err != nil {
		return fmt.Errorf("delete %s: %w", t, err)
	}
	return nil
}

// Drop implements filters.Store. The table is emptied, not dropped; its
// schema belongs to the migrations.
func (s *FilterStore) Drop(ctx context.Context, coll filters.Collection) error {
	t, err := table(coll)
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = s.db.ExecContext(ctx, "DELETE FROM "+t)
	s.trace(ctx, "drop", coll, start, err)
	if err != nil {
		return fmt.Errorf("clear %s: %w", t, err)
	}
	return nil
}

func (s *FilterStore) trace(ctx context.Context, op string, coll filters.Collection, start time.Time, err error, attrs ...slog.Attr) {
	attrs = append(attrs,
		slog.String("op", op),
		slog.String("collection", string(coll)),
		slog.Duration("duration", logger.Took(start)),
	)
	if err != nil {
		logger.Error(ctx, logger.ComponentDB, "db.query", append(attrs, slog.String("err", err.Error()))...)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.ComponentDB, "db.query", attrs...)
	}
}
