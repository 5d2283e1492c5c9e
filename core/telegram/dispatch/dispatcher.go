// Package dispatch keeps message handlers in numbered groups and routes
// updates through them. Lower groups run first; within a group only the
// first handler whose matcher accepts the update runs.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/m3rciful/filtrbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Handler pairs a matcher with the function to run. Handlers are compared
// by pointer, so the same *Handler must be passed to RemoveHandler.
type Handler struct {
	Name string
	// Match reports whether the handler accepts the update. Nil matches everything.
	Match func(c tele.Context) bool
	Func  tele.HandlerFunc
}

func (h *Handler) matches(c tele.Context) bool {
	return h.Match == nil || h.Match(c)
}

// Dispatcher is safe for concurrent use.
type Dispatcher struct {
	mu     sync.RWMutex
	groups map[int][]*Handler
	order  []int
}

// New returns an empty dispatcher.
func New() *Dispatcher {
	return &Dispatcher{groups: make(map[int][]*Handler)}
}

// AddHandler appends h to group. Adding a handler already in the group is a no-op.
func (d *Dispatcher) AddHandler(h *Handler, group int) {
	if h == nil || h.Func == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers, exists := d.groups[group]
	for _, existing := range handlers {
		if existing == h {
			return
		}
	}
	d.groups[group] = append(handlers, h)
	if !exists {
		d.order = append(d.order, group)
		sort.Ints(d.order)
	}
}

// RemoveHandler detaches h from group. Unknown handlers are ignored.
func (d *Dispatcher) RemoveHandler(h *Handler, group int) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := d.groups[group]
	for i, existing := range handlers {
		if existing != h {
			continue
		}
		handlers = append(handlers[:i:i], handlers[i+1:]...)
		if len(handlers) > 0 {
			d.groups[group] = handlers
			return
		}
		delete(d.groups, group)
		for j, g := range d.order {
			if g == group {
				d.order = append(d.order[:j:j], d.order[j+1:]...)
				break
			}
		}
		return
	}
}

// Len returns the number of attached handlers across all groups.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, handlers := range d.groups {
		n += len(handlers)
	}
	return n
}

// Groups returns the group numbers that currently hold handlers, ascending.
func (d *Dispatcher) Groups() []int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]int(nil), d.order...)
}

// Has reports whether h is attached to group.
func (d *Dispatcher) Has(h *Handler, group int) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, existing := range d.groups[group] {
		if existing == h {
			return true
		}
	}
	return false
}

// snapshot copies the table so matchers run without holding the lock.
// Matchers may call back into code that attaches or detaches handlers.
func (d *Dispatcher) snapshot() [][]*Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([][]*Handler, 0, len(d.order))
	for _, g := range d.order {
		out = append(out, append([]*Handler(nil), d.groups[g]...))
	}
	return out
}

// Dispatch runs the update through every group and reports how many
// handlers ran. Handler errors do not stop later groups; they are joined.
func (d *Dispatcher) Dispatch(c tele.Context) (int, error) {
	var (
		ran  int
		errs []error
	)
	for _, handlers := range d.snapshot() {
		for _, h := range handlers {
			if !h.matches(c) {
				continue
			}
			ran++
			if err := h.Func(c); err != nil {
				errs = append(errs, fmt.Errorf("handler %s: %w", h.Name, err))
				logger.Warn(logger.Background(), logger.ComponentDispatch, "handler.failed",
					slog.String("handler", h.Name),
					slog.String("err", err.Error()),
				)
			}
			break
		}
	}
	return ran, errors.Join(errs...)
}
