package filters

import (
	"context"
	"fmt"

	"github.com/juju/collections/set"
)

// State mirrors the persisted disabled and unloaded sets in memory.
// It is owned by a Registry, which serialises access to it.
type State struct {
	disabled set.Strings
	unloaded set.Strings
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		disabled: set.NewStrings(),
		unloaded: set.NewStrings(),
	}
}

// LoadState reads both persisted collections into a new State.
func LoadState(ctx context.Context, store Store) (*State, error) {
	st := NewState()
	for _, coll := range Collections {
		names, err := store.FindAll(ctx, coll)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", coll, err)
		}
		for _, name := range names {
			st.names(coll).Add(name)
		}
	}
	return st, nil
}

func (s *State) names(coll Collection) set.Strings {
	if coll == DisabledFilters {
		return s.disabled
	}
	return s.unloaded
}

// IsDisabled reports whether name is in the disabled set.
func (s *State) IsDisabled(name string) bool {
	return s.disabled.Contains(name)
}

// IsUnloaded reports whether name is in the unloaded set.
func (s *State) IsUnloaded(name string) bool {
	return s.unloaded.Contains(name)
}

// Disabled returns the disabled names, sorted.
func (s *State) Disabled() []string {
	return s.disabled.SortedValues()
}

// Unloaded returns the unloaded names, sorted.
func (s *State) Unloaded() []string {
	return s.unloaded.SortedValues()
}

func (s *State) reset(coll Collection) {
	if coll == DisabledFilters {
		s.disabled = set.NewStrings()
		return
	}
	s.unloaded = set.NewStrings()
}
