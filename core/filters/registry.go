// Package filters tracks which message filters are enabled and loaded,
// persists that state, and attaches or detaches filter handlers on a
// dispatcher as the load state changes.
package filters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/filtrbot/core/logger"
	"github.com/m3rciful/filtrbot/core/telegram/dispatch"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrFilterNotFound is returned by name-based operations for unknown filters.
	ErrFilterNotFound = errors.New("filter not found")
	// ErrDuplicateFilter is returned by Register and Filter.Update when the
	// name is taken by another filter.
	ErrDuplicateFilter = errors.New("filter already registered")
)

// Dispatcher attaches and detaches handlers by group.
type Dispatcher interface {
	AddHandler(h *dispatch.Handler, group int)
	RemoveHandler(h *dispatch.Handler, group int)
}

// Options configures NewRegistry.
type Options struct {
	Store      Store
	Dispatcher Dispatcher
	// Trigger lists characters stripped from the start of filter names.
	Trigger string
}

// Registry owns the filter state. All methods are safe for concurrent use;
// store calls are made while holding the registry lock, so mutations are
// applied one at a time.
type Registry struct {
	mu       sync.RWMutex
	store    Store
	dispatch Dispatcher
	trigger  string
	state    *State
	filters  map[string]*Filter
}

// NewRegistry loads the persisted state from opts.Store.
func NewRegistry(ctx context.Context, opts Options) (*Registry, error) {
	if opts.Store == nil {
		return nil, errors.New("filters: nil store")
	}
	if opts.Dispatcher == nil {
		return nil, errors.New("filters: nil dispatcher")
	}
	st, err := LoadState(ctx, opts.Store)
	if err != nil {
		return nil, fmt.Errorf("filters: %w", err)
	}
	logger.Debug(ctx, logger.ComponentFilters, "filters.state",
		slog.Int("disabled", len(st.disabled)),
		slog.Int("unloaded", len(st.unloaded)),
	)
	return &Registry{
		store:    opts.Store,
		dispatch: opts.Dispatcher,
		trigger:  opts.Trigger,
		state:    st,
		filters:  make(map[string]*Filter),
	}, nil
}

// Normalize strips leading trigger characters from name.
func (r *Registry) Normalize(name string) string {
	return strings.TrimLeft(name, r.trigger)
}

// Initialize reports the persisted flags for name. A name that was never
// disabled or unloaded is enabled and loaded.
func (r *Registry) Initialize(name string) (enabled, loaded bool) {
	name = r.Normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.state.IsDisabled(name), !r.state.IsUnloaded(name)
}

// NewFilter returns an empty filter bound to this registry. It becomes
// addressable by name once Update has been called.
func (r *Registry) NewFilter(group int) *Filter {
	return &Filter{reg: r, group: group, enabled: true}
}

// Register creates a filter under the normalized name, gives it a handler
// and initializes it from the persisted state, loading it unless it was
// unloaded before.
func (r *Registry) Register(ctx context.Context, group int, name, about string, match func(tele.Context) bool, fn tele.HandlerFunc) (*Filter, error) {
	name = r.Normalize(name)
	f := r.NewFilter(group)
	if err := f.Update(name, about, &dispatch.Handler{Name: name, Match: match, Func: fn}); err != nil {
		return nil, err
	}
	if err := f.Init(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Lookup finds a filter by name, ignoring trigger characters.
func (r *Registry) Lookup(name string) (*Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.filters[r.Normalize(name)]
	return f, ok
}

func (r *Registry) mustLookup(name string) (*Filter, error) {
	f, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFilterNotFound, r.Normalize(name))
	}
	return f, nil
}

// Enable switches the named filter on. See Filter.Enable.
func (r *Registry) Enable(ctx context.Context, name string) (string, error) {
	f, err := r.mustLookup(name)
	if err != nil {
		return "", err
	}
	return f.Enable(ctx)
}

// Disable switches the named filter off. See Filter.Disable.
func (r *Registry) Disable(ctx context.Context, name string) (string, error) {
	f, err := r.mustLookup(name)
	if err != nil {
		return "", err
	}
	return f.Disable(ctx)
}

// Load attaches the named filter. See Filter.Load.
func (r *Registry) Load(ctx context.Context, name string) (string, error) {
	f, err := r.mustLookup(name)
	if err != nil {
		return "", err
	}
	return f.Load(ctx)
}

// Unload detaches the named filter. See Filter.Unload.
func (r *Registry) Unload(ctx context.Context, name string) (string, error) {
	f, err := r.mustLookup(name)
	if err != nil {
		return "", err
	}
	return f.Unload(ctx)
}

// ClearAll drops both persisted collections and empties their mirrors.
// Flags of filters already in memory are left untouched.
func (r *Registry) ClearAll(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := clearCollections(ctx, r.store, r.state); err != nil {
		return false, err
	}
	return true, nil
}

// ClearStore drops both persisted collections without a registry, for
// maintenance tooling that runs outside the bot process.
func ClearStore(ctx context.Context, store Store) error {
	return clearCollections(ctx, store, NewState())
}

func clearCollections(ctx context.Context, store Store, st *State) error {
	for _, coll := range Collections {
		if err := store.Drop(ctx, coll); err != nil {
			return fmt.Errorf("drop %s: %w", coll, err)
		}
		st.reset(coll)
	}
	logger.Info(ctx, logger.ComponentFilters, "filters.cleared",
		slog.String("status", "ok"),
	)
	return nil
}

// Filters returns every known filter sorted by name.
func (r *Registry) Filters() []*Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Filter, 0, len(r.filters))
	for _, f := range r.filters {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Disabled returns the names in the disabled set, sorted.
func (r *Registry) Disabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Disabled()
}

// Unloaded returns the names in the unloaded set, sorted.
func (r *Registry) Unloaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Unloaded()
}
