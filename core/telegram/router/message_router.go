package router

import (
	"log/slog"
	"time"

	tg "github.com/m3rciful/filtrbot/core/telegram"
	"github.com/m3rciful/filtrbot/core/telegram/dispatch"
	tghelpers "github.com/m3rciful/filtrbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const dispatchHandler = "dispatch"

// MessageEndpoints lists the update kinds fed into the filter dispatcher.
var MessageEndpoints = []string{tele.OnText, tele.OnMedia, tele.OnEdited}

// MessageRoutes hands every text, media and edited message to d. Commands
// that are registered as routes never reach it, since telebot matches
// command endpoints first.
func MessageRoutes(d *dispatch.Dispatcher) []tg.Route {
	if d == nil {
		return nil
	}
	h := func(c tele.Context) error {
		start := time.Now()
		tghelpers.WithHandler(c, dispatchHandler)
		ran, err := d.Dispatch(c)
		outcome := ""
		if err == nil && ran == 0 {
			outcome = "noop"
		}
		logHandlerSummary(c, dispatchHandler, start, outcome, err, slog.Int("handlers", ran))
		return err
	}
	routes := make([]tg.Route, 0, len(MessageEndpoints))
	for _, ep := range MessageEndpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: h})
	}
	return routes
}
