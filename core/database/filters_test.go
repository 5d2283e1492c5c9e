package database

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	qt "github.com/frankban/quicktest"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/m3rciful/filtrbot/core/filters"
	"github.com/m3rciful/filtrbot/core/telegram/dispatch"

	tele "gopkg.in/telebot.v4"
)

// sqliteSchema replays the embedded up migrations on SQLite. BIGSERIAL is
// the only Postgres type they use; SQLite needs an INTEGER primary key for
// ids to be assigned.
func sqliteSchema(c *qt.C) string {
	var b strings.Builder
	for _, name := range listMigrationFiles(migrationsFS, migrationsDir) {
		data, err := fs.ReadFile(Migrations(), name)
		c.Assert(err, qt.IsNil)
		b.Write(data)
		b.WriteString("\n")
	}
	schema := b.String()
	c.Assert(strings.Count(schema, "BIGSERIAL PRIMARY KEY"), qt.Equals, len(filters.Collections))
	return strings.ReplaceAll(schema, "BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT")
}

func newTestStore(c *qt.C) *FilterStore {
	db, err := sqlx.Open("sqlite3", ":memory:")
	c.Assert(err, qt.IsNil)
	// Every connection to :memory: gets its own database.
	db.SetMaxOpenConns(1)
	c.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(sqliteSchema(c))
	c.Assert(err, qt.IsNil)
	return NewFilterStore(db)
}

func TestFilterStoreRoundTrip(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newTestStore(c)

	for _, name := range []string{"ping", "weather", "ping"} {
		c.Assert(s.InsertOne(ctx, filters.DisabledFilters, name), qt.IsNil)
	}
	names, err := s.FindAll(ctx, filters.DisabledFilters)
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.DeepEquals, []string{"ping", "weather", "ping"})

	c.Assert(s.DeleteOne(ctx, filters.DisabledFilters, "ping"), qt.IsNil)
	names, err = s.FindAll(ctx, filters.DisabledFilters)
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.DeepEquals, []string{"weather", "ping"})

	c.Assert(s.DeleteOne(ctx, filters.DisabledFilters, "absent"), qt.IsNil)

	unloaded, err := s.FindAll(ctx, filters.UnloadedFilters)
	c.Assert(err, qt.IsNil)
	c.Assert(unloaded, qt.HasLen, 0)

	c.Assert(s.Drop(ctx, filters.DisabledFilters), qt.IsNil)
	names, err = s.FindAll(ctx, filters.DisabledFilters)
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.HasLen, 0)
}

func TestFilterStoreRejectsUnknownCollection(t *testing.T) {
	c := qt.New(t)
	s := newTestStore(c)
	err := s.InsertOne(context.Background(), filters.Collection("users; DROP TABLE x"), "ping")
	c.Assert(err, qt.ErrorMatches, `unknown filter collection .*`)
}

func TestRegistryOverFilterStore(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newTestStore(c)
	c.Assert(s.InsertOne(ctx, filters.UnloadedFilters, "news"), qt.IsNil)

	reg, err := filters.NewRegistry(ctx, filters.Options{Store: s, Dispatcher: dispatch.New(), Trigger: "/"})
	c.Assert(err, qt.IsNil)
	enabled, loaded := reg.Initialize("/news")
	c.Assert(enabled, qt.IsTrue)
	c.Assert(loaded, qt.IsFalse)

	_, err = reg.Register(ctx, 0, "news", "", nil, func(tele.Context) error { return nil })
	c.Assert(err, qt.IsNil)
	name, err := reg.Load(ctx, "news")
	c.Assert(err, qt.IsNil)
	c.Assert(name, qt.Equals, "news")
	name, err = reg.Disable(ctx, "news")
	c.Assert(err, qt.IsNil)
	c.Assert(name, qt.Equals, "news")

	unloaded, err := s.FindAll(ctx, filters.UnloadedFilters)
	c.Assert(err, qt.IsNil)
	c.Assert(unloaded, qt.HasLen, 0)
	disabled, err := s.FindAll(ctx, filters.DisabledFilters)
	c.Assert(err, qt.IsNil)
	c.Assert(disabled, qt.DeepEquals, []string{"news"})

	c.Assert(filters.ClearStore(ctx, s), qt.IsNil)
	disabled, err = s.FindAll(ctx, filters.DisabledFilters)
	c.Assert(err, qt.IsNil)
	c.Assert(disabled, qt.HasLen, 0)
}

func TestMigrationFiles(t *testing.T) {
	c := qt.New(t)
	files := listMigrationFiles(migrationsFS, migrationsDir)
	c.Assert(files, qt.DeepEquals, []string{"000001_filter_state.up.sql"})

	fsys := fstest.MapFS{
		"m/000001_a.up.sql":   {},
		"m/000001_a.down.sql": {},
		"m/000003_c.up.sql":   {},
		"m/000002_b.up.sql":   {},
		"m/README":            {},
	}
	files = listMigrationFiles(fsys, "m")
	c.Assert(files, qt.DeepEquals, []string{"000001_a.up.sql", "000002_b.up.sql", "000003_c.up.sql"})
	c.Assert(selectApplied(files, 1, 3), qt.DeepEquals, []string{"000002_b.up.sql", "000003_c.up.sql"})
	c.Assert(selectApplied(files, 3, 3), qt.HasLen, 0)
}

func TestMigrationsCoverEveryCollection(t *testing.T) {
	c := qt.New(t)
	s := newTestStore(c)
	var indexed []string
	err := s.db.Select(&indexed, "SELECT tbl_name FROM sqlite_master WHERE type = 'index' AND name LIKE '%_filter_idx' ORDER BY tbl_name")
	c.Assert(err, qt.IsNil)

	var tables []string
	for _, coll := range filters.Collections {
		tbl, err := table(coll)
		c.Assert(err, qt.IsNil)
		tables = append(tables, tbl)

		var cols []string
		err = s.db.Select(&cols, "SELECT name FROM pragma_table_info('"+tbl+"') ORDER BY cid")
		c.Assert(err, qt.IsNil)
		c.Assert(cols, qt.DeepEquals, []string{"id", "filter"}, qt.Commentf("table %s", tbl))
	}
	c.Assert(indexed, qt.DeepEquals, tables)

	down, err := fs.ReadFile(Migrations(), "000001_filter_state.down.sql")
	c.Assert(err, qt.IsNil)
	for _, tbl := range tables {
		c.Assert(string(down), qt.Contains, "DROP TABLE IF EXISTS "+tbl+";")
	}
}

func TestConfigURLs(t *testing.T) {
	c := qt.New(t)
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "filtr"}
	c.Assert(cfg.DSN(), qt.Equals, "user=bot password=p@ss host=db port=5432 dbname=filtr sslmode=disable")
	c.Assert(cfg.URL(), qt.Equals, "postgres://bot:p%40ss@db:5432/filtr?sslmode=disable")
}
