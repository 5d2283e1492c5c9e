package filters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/filtrbot/core/logger"
	"github.com/m3rciful/filtrbot/core/telegram/dispatch"

	tele "gopkg.in/telebot.v4"
)

var errNoHandler = errors.New("filter has no handler")

// Filter is a named message handler whose enabled and loaded flags are
// tracked by a Registry. Enabled only matters while the filter is loaded.
type Filter struct {
	reg   *Registry
	group int

	// Guarded by reg.mu.
	name    string
	about   string
	handler *dispatch.Handler
	enabled bool
	loaded  bool
}

// String implements fmt.Stringer.
func (f *Filter) String() string {
	return fmt.Sprintf("<filter - %s>", f.Name())
}

// Name returns the name the filter was updated with.
func (f *Filter) Name() string {
	f.reg.mu.RLock()
	defer f.reg.mu.RUnlock()
	return f.name
}

// About returns the filter description.
func (f *Filter) About() string {
	f.reg.mu.RLock()
	defer f.reg.mu.RUnlock()
	return f.about
}

// Group returns the dispatch group the handler is attached to.
func (f *Filter) Group() int {
	return f.group
}

// IsEnabled reports whether the filter is loaded and switched on.
func (f *Filter) IsEnabled() bool {
	f.reg.mu.RLock()
	defer f.reg.mu.RUnlock()
	return f.loaded && f.enabled
}

// IsDisabled reports whether the filter is loaded and switched off.
func (f *Filter) IsDisabled() bool {
	f.reg.mu.RLock()
	defer f.reg.mu.RUnlock()
	return f.loaded && !f.enabled
}

// IsLoaded reports whether the handler is attached to the dispatcher.
func (f *Filter) IsLoaded() bool {
	f.reg.mu.RLock()
	defer f.reg.mu.RUnlock()
	return f.loaded
}

// Update sets name, description and handler. The handler only matches
// while the filter is enabled. If the filter is loaded, the previous
// handler is swapped out on the dispatcher, so the new one must have a
// Func. Update fails with ErrDuplicateFilter if name belongs to another
// filter; the filter is left unchanged on error.
func (f *Filter) Update(name, about string, h *dispatch.Handler) error {
	gated := &dispatch.Handler{Name: name}
	if h != nil {
		gated.Name = h.Name
		gated.Func = h.Func
		match := h.Match
		gated.Match = func(c tele.Context) bool {
			return f.IsEnabled() && (match == nil || match(c))
		}
	}

	r := f.reg
	r.mu.Lock()
	defer r.mu.Unlock()

	key := r.Normalize(name)
	if other, taken := r.filters[key]; taken && other != f {
		return fmt.Errorf("%w: %s", ErrDuplicateFilter, key)
	}
	if f.loaded && gated.Func == nil {
		return fmt.Errorf("update filter %s: %w", key, errNoHandler)
	}

	if f.name != "" && r.filters[r.Normalize(f.name)] == f {
		delete(r.filters, r.Normalize(f.name))
	}
	if f.loaded {
		r.dispatch.RemoveHandler(f.handler, f.group)
		r.dispatch.AddHandler(gated, f.group)
	}
	f.name = name
	f.about = about
	f.handler = gated
	r.filters[key] = f

	logger.Debug(logger.Background(), logger.ComponentFilters, "filter.created",
		slog.String("filter", name),
		slog.Int("group", f.group),
	)
	return nil
}

// Init applies the persisted flags and loads the filter unless it was unloaded.
func (f *Filter) Init(ctx context.Context) error {
	enabled, loaded := f.reg.Initialize(f.Name())

	f.reg.mu.Lock()
	f.enabled = enabled
	f.reg.mu.Unlock()

	if !loaded {
		return nil
	}
	_, err := f.Load(ctx)
	return err
}

// Enable switches the filter on and removes it from the disabled set.
// It returns the filter name, or "" if the filter was already enabled.
//
// The name is expected to be in the disabled set whenever the filter is
// disabled; that is not verified.
func (f *Filter) Enable(ctx context.Context) (string, error) {
	r := f.reg
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.enabled {
		return "", nil
	}
	key := r.Normalize(f.name)
	if err := r.store.DeleteOne(ctx, DisabledFilters, key); err != nil {
		return "", fmt.Errorf("enable filter %s: %w", key, err)
	}
	r.state.disabled.Remove(key)
	f.enabled = true
	f.logChange(ctx, slog.LevelDebug, "filter.enabled")
	return f.name, nil
}

// Disable switches the filter off and adds it to the disabled set.
// It returns the filter name, or "" if the filter was already disabled.
func (f *Filter) Disable(ctx context.Context) (string, error) {
	r := f.reg
	r.mu.Lock()
	defer r.mu.Unlock()
	if !f.enabled {
		return "", nil
	}
	key := r.Normalize(f.name)
	if err := r.store.InsertOne(ctx, DisabledFilters, key); err != nil {
		return "", fmt.Errorf("disable filter %s: %w", key, err)
	}
	r.state.disabled.Add(key)
	f.enabled = false
	f.logChange(ctx, slog.LevelInfo, "filter.disabled")
	return f.name, nil
}

// Load attaches the handler to the dispatcher and removes the filter from
// the unloaded set. It returns the filter name, or "" if already loaded.
func (f *Filter) Load(ctx context.Context) (string, error) {
	r := f.reg
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.loaded {
		return "", nil
	}
	if f.handler == nil || f.handler.Func == nil {
		return "", fmt.Errorf("load filter %s: %w", f.name, errNoHandler)
	}
	key := r.Normalize(f.name)
	if r.state.IsUnloaded(key) {
		if err := r.store.DeleteOne(ctx, UnloadedFilters, key); err != nil {
			return "", fmt.Errorf("load filter %s: %w", key, err)
		}
		r.state.unloaded.Remove(key)
	}
	r.dispatch.AddHandler(f.handler, f.group)
	f.loaded = true
	f.logChange(ctx, slog.LevelDebug, "filter.loaded")
	return f.name, nil
}

// Unload detaches the handler and adds the filter to the unloaded set.
// It returns the filter name, or "" if already unloaded.
func (f *Filter) Unload(ctx context.Context) (string, error) {
	r := f.reg
	r.mu.Lock()
	defer r.mu.Unlock()
	if !f.loaded {
		return "", nil
	}
	key := r.Normalize(f.name)
	if err := r.store.InsertOne(ctx, UnloadedFilters, key); err != nil {
		return "", fmt.Errorf("unload filter %s: %w", key, err)
	}
	r.state.unloaded.Add(key)
	r.dispatch.RemoveHandler(f.handler, f.group)
	f.loaded = false
	f.logChange(ctx, slog.LevelInfo, "filter.unloaded")
	return f.name, nil
}

// logChange expects reg.mu to be held.
func (f *Filter) logChange(ctx context.Context, level slog.Level, event string) {
	logger.Event(ctx, logger.ComponentFilters, level, event,
		slog.String("filter", f.name),
		slog.Int("group", f.group),
		slog.Bool("enabled", f.enabled),
		slog.Bool("loaded", f.loaded),
	)
}
