package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/filtrbot/core/filters"
	"github.com/m3rciful/filtrbot/core/logger"
	tg "github.com/m3rciful/filtrbot/core/telegram"
	"github.com/m3rciful/filtrbot/core/telegram/commands"
	"github.com/m3rciful/filtrbot/core/telegram/format"
	tghelpers "github.com/m3rciful/filtrbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type toggleFunc func(r *filters.Registry, ctx context.Context, name string) (string, error)

type toggle struct {
	command string
	state   string
	apply   toggleFunc
	about   string
}

var toggles = []toggle{
	{"/enable", "enabled", (*filters.Registry).Enable, "switch a filter on"},
	{"/disable", "disabled", (*filters.Registry).Disable, "switch a filter off"},
	{"/load", "loaded", (*filters.Registry).Load, "attach a filter handler"},
	{"/unload", "unloaded", (*filters.Registry).Unload, "detach a filter handler"},
}

// Admin serves the filter management commands.
type Admin struct {
	reg *filters.Registry
}

// NewAdmin returns an Admin driving reg.
func NewAdmin(reg *filters.Registry) *Admin {
	return &Admin{reg: reg}
}

// toggle runs one of the enable/disable/load/unload operations and
// returns the reply text.
func (a *Admin) toggle(ctx context.Context, t toggle, name string) string {
	key := a.reg.Normalize(strings.TrimSpace(name))
	if key == "" {
		return fmt.Sprintf("usage: %s <filter>", t.command)
	}
	changed, err := t.apply(a.reg, ctx, key)
	switch {
	case errors.Is(err, filters.ErrFilterNotFound):
		return fmt.Sprintf("unknown filter %s", format.Code(key))
	case err != nil:
		logger.Error(ctx, logger.ComponentFilters, "filters.command",
			slog.String("op", strings.TrimPrefix(t.command, "/")),
			slog.String("filter", key),
			slog.String("err", err.Error()),
		)
		return fmt.Sprintf("could not update %s, see logs", format.Code(key))
	case changed == "":
		return fmt.Sprintf("filter %s already %s", format.Code(key), t.state)
	}
	return fmt.Sprintf("filter %s %s", format.Code(changed), t.state)
}

// Status renders every filter with its state, followed by persisted names
// that no registered filter claims.
func (a *Admin) Status() string {
	var b strings.Builder
	known := make(map[string]bool)
	for _, f := range a.reg.Filters() {
		known[f.Name()] = true
		state := "enabled"
		switch {
		case !f.IsLoaded():
			state = "unloaded"
		case f.IsDisabled():
			state = "disabled"
		}
		fmt.Fprintf(&b, "%s - %s", format.Code(f.Name()), state)
		if about := f.About(); about != "" {
			fmt.Fprintf(&b, " (%s)", escape(about))
		}
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		b.WriteString("no filters registered\n")
	}

	var orphans []string
	for _, name := range append(a.reg.Disabled(), a.reg.Unloaded()...) {
		if !known[name] {
			orphans = append(orphans, format.Code(name))
			known[name] = true
		}
	}
	if len(orphans) > 0 {
		fmt.Fprintf(&b, "stored without a filter: %s\n", strings.Join(orphans, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clear drops the persisted state and returns the reply text.
func (a *Admin) Clear(ctx context.Context) string {
	if _, err := a.reg.ClearAll(ctx); err != nil {
		logger.Error(ctx, logger.ComponentFilters, "filters.command",
			slog.String("op", "clear"),
			slog.String("err", err.Error()),
		)
		return "could not clear filter state, see logs"
	}
	return "filter state cleared; running filters keep their flags until restart"
}

// Register adds the admin commands to reg.
func (a *Admin) Register(reg *tg.Registry) error {
	for _, t := range toggles {
		t := t
		err := reg.RegisterCommand(t.command, commands.Command{
			Description: t.about,
			Usage:       "<filter>",
			AdminOnly:   true,
			Handler: func(c tele.Context) error {
				return tghelpers.SendMD(c, a.toggle(tghelpers.BuildContext(c), t, payload(c)))
			},
		})
		if err != nil {
			return err
		}
	}
	if err := reg.RegisterCommand("/filters", commands.Command{
		Description: "list filters and their state",
		AdminOnly:   true,
		Handler: func(c tele.Context) error {
			return tghelpers.SendMD(c, a.Status())
		},
	}); err != nil {
		return err
	}
	return reg.RegisterCommand("/clearfilters", commands.Command{
		Description: "forget all disabled and unloaded filters",
		AdminOnly:   true,
		Handler: func(c tele.Context) error {
			return tghelpers.SendText(c, a.Clear(tghelpers.BuildContext(c)))
		},
	})
}

func payload(c tele.Context) string {
	if m := c.Message(); m != nil {
		return m.Payload
	}
	return ""
}

func escape(s string) string {
	out, _ := format.EscapeMarkdown(s, format.MarkdownV1)
	return out
}
