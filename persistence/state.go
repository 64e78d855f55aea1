package persistence

import (
	"fmt"

	"github.com/hupe1980/pikodb/model"
)

// State is the durable content of a store.
type State struct {
	Collections map[string]CollectionState `json:"collections"`
}

// CollectionState is the durable content of one collection.
type CollectionState struct {
	Config   model.IndexConfig `json:"config"`
	Points   []model.Point     `json:"points"`
	IDToSlot map[string]int    `json:"id_to_slot"`
}

// NewState returns an empty state.
func NewState() *State {
	return &State{Collections: make(map[string]CollectionState)}
}

// Len returns the total number of points across all collections.
func (s *State) Len() int {
	n := 0
	for _, c := range s.Collections {
		n += len(c.Points)
	}
	return n
}

// Validate checks the structural invariants of the collection: a valid
// config, vectors of the configured dimension and an id map that agrees
// with the points.
func (c *CollectionState) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}

	dim := c.Config.Dimension()
	if len(c.IDToSlot) != len(c.Points) {
		return fmt.Errorf("id map has %d entries for %d points", len(c.IDToSlot), len(c.Points))
	}

	for i, p := range c.Points {
		if len(p.Vector) != dim {
			return fmt.Errorf("point %q: vector has dimension %d, want %d", p.ID, len(p.Vector), dim)
		}
		slot, ok := c.IDToSlot[p.ID]
		if !ok || slot != i {
			return fmt.Errorf("point %q at slot %d is not mapped to its slot", p.ID, i)
		}
	}

	return nil
}

// Validate checks every collection.
func (s *State) Validate() error {
	for name, c := range s.Collections {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("collection %q: %w", name, err)
		}
	}
	return nil
}
