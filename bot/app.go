// Package bot wires the filter registry, the bundled filters and the admin
// commands into a runnable Telegram bot.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/filtrbot/core/bootstrap"
	corecmd "github.com/m3rciful/filtrbot/core/cmd"
	"github.com/m3rciful/filtrbot/core/filters"
	"github.com/m3rciful/filtrbot/core/logger"
	tg "github.com/m3rciful/filtrbot/core/telegram"
	"github.com/m3rciful/filtrbot/core/telegram/dispatch"
	"github.com/m3rciful/filtrbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

const setupTimeout = 10 * time.Second

// App holds the components of a running bot.
type App struct {
	cfg      *Config
	infra    *bootstrap.Result
	dispatch *dispatch.Dispatcher
	filters  *filters.Registry
	commands *tg.Registry
}

// New builds the dispatcher, the filter registry over store, the bundled
// filters and the admin commands.
func New(ctx context.Context, cfg *Config, store filters.Store) (*App, error) {
	disp := dispatch.New()
	reg, err := filters.NewRegistry(ctx, filters.Options{
		Store:      store,
		Dispatcher: disp,
		Trigger:    cfg.Commands.Trigger,
	})
	if err != nil {
		return nil, err
	}
	if err := RegisterSampleFilters(ctx, reg); err != nil {
		return nil, err
	}

	cmds := tg.NewRegistry()
	if err := NewAdmin(reg).Register(cmds); err != nil {
		return nil, fmt.Errorf("register admin commands: %w", err)
	}

	logger.Info(ctx, logger.ComponentApp, "app.built",
		slog.Int("filters", len(reg.Filters())),
		slog.Int("handlers", disp.Len()),
		slog.Int("commands", len(cmds.Names())),
	)
	return &App{cfg: cfg, dispatch: disp, filters: reg, commands: cmds}, nil
}

// Bootstrap implements the bootstrap step of cmd.Options.
func Bootstrap(carrier corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := carrier.(*Config)
	if !ok {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}
	infra, err := bootstrap.Run(bootstrap.Options{
		Config:   &cfg.Config,
		Database: cfg.Database,
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()
	app, err := New(ctx, cfg, infra.Store)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}
	app.infra = infra
	return app, nil
}

// Filters exposes the registry, mainly for tests.
func (a *App) Filters() *filters.Registry { return a.filters }

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	if a == nil || a.cfg == nil {
		return tg.RunOptions{}, fmt.Errorf("bot: app not initialized")
	}
	routes := router.CommandRoutes(a.commands, router.CommandRouteOptions{
		AdminID:       a.cfg.Telegram.AdminID,
		OnAdminReject: rejectNonAdmin,
	})
	routes = append(routes, router.MessageRoutes(a.dispatch)...)

	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.commands,
		Dispatch:    a.dispatch,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, nil),
		Routes:      routes,
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			return a.infra.Close()
		},
	}, nil
}

func rejectNonAdmin(c tele.Context) error {
	return c.Send("this command is for the bot admin only")
}
