package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/m3rciful/filtrbot/bot"
	"github.com/m3rciful/filtrbot/core/bootstrap"
	coredatabase "github.com/m3rciful/filtrbot/core/database"
	"github.com/m3rciful/filtrbot/core/filters"
	"github.com/m3rciful/filtrbot/core/logger"
)

const storeTimeout = 30 * time.Second

// openStore is replaced in tests.
var openStore = func(cfg *bot.Config) (filters.Store, func() error, error) {
	if cfg.Database.Host == "" {
		return nil, nil, errors.New("no database configured (database.host / DB_HOST)")
	}
	db, err := bootstrap.OpenDatabase(bootstrap.Options{Config: &cfg.Config, Database: cfg.Database})
	if err != nil {
		return nil, nil, err
	}
	return coredatabase.NewFilterStore(db), db.Close, nil
}

func newFiltersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Inspect or reset persisted filter state",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print disabled and unloaded filters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), func(ctx context.Context, store filters.Store) error {
					st, err := filters.LoadState(ctx, store)
					if err != nil {
						return err
					}
					printState(cmd.OutOrStdout(), st)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget all disabled and unloaded filters",
			Long: `Empties both persisted collections. A running bot keeps its current
filter flags until it restarts.`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(cmd.Context(), func(ctx context.Context, store filters.Store) error {
					if err := filters.ClearStore(ctx, store); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "filter state cleared")
					return nil
				})
			},
		},
	)
	return cmd
}

func withStore(ctx context.Context, fn func(context.Context, filters.Store) error) error {
	path, err := configOptions().ResolveConfigPath()
	if err != nil {
		return err
	}
	cfg, err := bot.DecodeConfig(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitLogger(&cfg.Config); err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	return fn(ctx, store)
}

func printState(w io.Writer, st *filters.State) {
	for _, row := range []struct {
		label string
		names []string
	}{
		{"disabled", st.Disabled()},
		{"unloaded", st.Unloaded()},
	} {
		list := "-"
		if len(row.names) > 0 {
			list = strings.Join(row.names, ", ")
		}
		fmt.Fprintf(w, "%s: %s\n", row.label, list)
	}
}
