// Package bootstrap brings up the infrastructure a bot needs before it can
// build its filter registry: logging, the database and the filter store.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/filtrbot/core/config"
	coredatabase "github.com/m3rciful/filtrbot/core/database"
	"github.com/m3rciful/filtrbot/core/filters"
	"github.com/m3rciful/filtrbot/core/logger"
)

// Options control the generic bootstrap pipeline shared between bots.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(coredatabase.Config) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil when the in-memory store is used.
type Result struct {
	DB    *sqlx.DB
	Store filters.Store
}

// Close releases the database connection, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// Run initializes the logger, connects to the database, and applies
// migrations. Without a database host the filter state lives in memory
// and is lost on restart.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	if opts.Database.Host == "" {
		logger.Warn(logger.Background(), logger.ComponentDB, "store.memory",
			slog.String("reason", "no_database_host"),
		)
		return &Result{Store: filters.NewMemoryStore()}, nil
	}

	db, err := OpenDatabase(opts)
	if err != nil {
		return nil, err
	}
	return &Result{DB: db, Store: coredatabase.NewFilterStore(db)}, nil
}

// OpenDatabase connects and migrates without touching the logger, for
// tooling that manages logging itself.
func OpenDatabase(opts Options) (*sqlx.DB, error) {
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(opts.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	return db, nil
}
