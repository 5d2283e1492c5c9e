package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/m3rciful/filtrbot/bot"
	"github.com/m3rciful/filtrbot/core/filters"
)

func execute(c *qt.C, args ...string) (string, error) {
	cfgFile = ""
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func withMemoryStore(c *qt.C) *filters.MemoryStore {
	store := filters.NewMemoryStore()
	c.Patch(&openStore, func(*bot.Config) (filters.Store, func() error, error) {
		return store, func() error { return nil }, nil
	})
	return store
}

func writeConfig(c *qt.C) string {
	path := filepath.Join(c.TempDir(), "config.yaml")
	c.Assert(os.WriteFile(path, []byte("logging:\n  level: error\n"), 0o600), qt.IsNil)
	return path
}

func TestFiltersList(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	store := withMemoryStore(c)
	c.Assert(store.InsertOne(ctx, filters.DisabledFilters, "weather"), qt.IsNil)
	c.Assert(store.InsertOne(ctx, filters.DisabledFilters, "ping"), qt.IsNil)

	out, err := execute(c, "filters", "list", "-c", writeConfig(c))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "disabled: ping, weather\nunloaded: -\n")
}

func TestFiltersClear(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	store := withMemoryStore(c)
	c.Assert(store.InsertOne(ctx, filters.UnloadedFilters, "news"), qt.IsNil)

	out, err := execute(c, "filters", "clear", "-c", writeConfig(c))
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "filter state cleared\n")
	names, err := store.FindAll(ctx, filters.UnloadedFilters)
	c.Assert(err, qt.IsNil)
	c.Assert(names, qt.HasLen, 0)
}

func TestFiltersMissingConfig(t *testing.T) {
	c := qt.New(t)
	withMemoryStore(c)
	_, err := execute(c, "filters", "list", "-c", filepath.Join(c.TempDir(), "absent.yaml"))
	c.Assert(err, qt.ErrorMatches, "load config: .*")
}

func TestVersion(t *testing.T) {
	c := qt.New(t)
	out, err := execute(c, "version")
	c.Assert(err, qt.IsNil)
	c.Assert(strings.HasPrefix(out, "filtrbot dev"), qt.IsTrue, qt.Commentf(out))
}
