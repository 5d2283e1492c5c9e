package router

import (
	"log/slog"

	"github.com/m3rciful/filtrbot/core/logger"
	tg "github.com/m3rciful/filtrbot/core/telegram"
	"github.com/m3rciful/filtrbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares one route per command and alias, wrapped with
// summary logging and, for admin-only commands, the admin check.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	routes := make([]tg.Route, 0, len(cmds))
	for _, name := range reg.Names() {
		def := cmds[name]
		handlerName := "command." + normalizeHandlerName(name)
		run := def.Handler
		var h tele.HandlerFunc = func(c tele.Context) error {
			return handleWithSummary(c, handlerName, func() error { return run(c) })
		}
		if def.AdminOnly {
			h = adminOnly(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range def.Aliases {
			if alias == "" {
				continue
			}
			if alias[0] != '/' {
				alias = "/" + alias
			}
			routes = append(routes, tg.Route{Endpoint: alias, Handler: h})
		}
	}

	logger.Info(logger.Background(), logger.ComponentWire, "tg.wire",
		slog.String("status", "ok"),
		slog.Int("commands", len(cmds)),
		slog.Int("routes", len(routes)),
	)
	return routes
}
