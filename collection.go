package pikodb

import (
	"fmt"
	"maps"
	"sync"

	"github.com/hupe1980/pikodb/index"
	"github.com/hupe1980/pikodb/internal/conv"
	"github.com/hupe1980/pikodb/model"
	"github.com/hupe1980/pikodb/persistence"
)

// Collection is a named set of points sharing one embedding dimension,
// indexed by an approximate nearest-neighbor index keyed by slot.
//
// Slots are dense positions in the point array. A slot never changes for
// its id, so the index can refer to points by slot alone.
//
// A Collection is safe for concurrent use: searches share a read lock,
// upserts take the write lock.
type Collection struct {
	mu sync.RWMutex

	name      string
	config    IndexConfig
	dimension int
	overfetch int

	points   []Point
	idToSlot map[string]int
	index    index.Index
}

func newCollection(name string, cfg IndexConfig, factory index.Factory, overfetch int) (*Collection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, translateError(err)
	}

	idx, err := factory(cfg.Dimension(), cfg)
	if err != nil {
		return nil, translateError(err)
	}

	return &Collection{
		name:      name,
		config:    cfg,
		dimension: cfg.Dimension(),
		overfetch: overfetch,
		points:    make([]Point, 0),
		idToSlot:  make(map[string]int),
		index:     idx,
	}, nil
}

// collectionFromState restores points and the id map as stored and rebuilds
// the index by inserting every point in ascending slot order.
func collectionFromState(name string, state persistence.CollectionState, factory index.Factory, overfetch int) (*Collection, error) {
	if err := state.Validate(); err != nil {
		return nil, &persistence.DeserializationError{Err: fmt.Errorf("collection %q: %w", name, err)}
	}

	c, err := newCollection(name, state.Config, factory, overfetch)
	if err != nil {
		return nil, err
	}

	c.points = state.Points
	c.idToSlot = state.IDToSlot
	if c.points == nil {
		c.points = make([]Point, 0)
	}
	if c.idToSlot == nil {
		c.idToSlot = make(map[string]int)
	}

	for slot, p := range c.points {
		id, err := conv.IntToUint32(slot)
		if err == nil {
			err = c.index.Insert(p.Vector, id)
		}
		if err != nil {
			return nil, &persistence.DeserializationError{
				Err: fmt.Errorf("collection %q: rebuild slot %d (%q): %w", name, slot, p.ID, err),
			}
		}
	}

	return c, nil
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Config returns the configuration the collection was created with.
func (c *Collection) Config() IndexConfig { return c.config }

// Dimension returns the vector length every point must have.
func (c *Collection) Dimension() int { return c.dimension }

// Len returns the number of distinct points.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.points)
}

// Get returns a copy of the point stored under id.
func (c *Collection) Get(id string) (Point, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	slot, ok := c.idToSlot[id]
	if !ok {
		return Point{}, false
	}
	return c.points[slot].Clone(), true
}

// Upsert stores p, replacing any point with the same id.
//
// A vector of the wrong length returns *ErrDimensionMismatch. On any error
// the collection is left unchanged.
func (c *Collection) Upsert(p Point) error {
	if err := index.CheckDimension(c.dimension, p.Vector); err != nil {
		return translateError(err)
	}

	p = p.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	slot, exists := c.idToSlot[p.ID]
	if !exists {
		slot = len(c.points)
	}

	id, err := conv.IntToUint32(slot)
	if err != nil {
		return err
	}
	if err := c.index.Insert(p.Vector, id); err != nil {
		return translateError(err)
	}

	if exists {
		c.points[slot] = p
	} else {
		c.points = append(c.points, p)
		c.idToSlot[p.ID] = slot
	}

	return nil
}

// Search returns up to limit points closest to query, most similar first.
func (c *Collection) Search(query []float32, limit int, ef EfSearch) ([]Point, error) {
	return c.SearchWithFilter(query, limit, ef, nil)
}

// SearchWithFilter is like Search but keeps only points that carry every
// pair of at least one filter.
//
// Filtering happens after retrieval on limit × overfetch candidates, so fewer
// than limit points may be returned when matches are rare.
func (c *Collection) SearchWithFilter(query []float32, limit int, ef EfSearch, filters []MetadataFilter) ([]Point, error) {
	if limit <= 0 {
		return []Point{}, nil
	}
	if err := index.CheckDimension(c.dimension, query); err != nil {
		return nil, translateError(err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := len(c.points)
	if n == 0 {
		return []Point{}, nil
	}

	// Fetch min(limit, n), or min(limit × overfetch, n) when filtering.
	fetch := min(limit, n)
	if len(filters) > 0 {
		fetch = n
		if limit <= n/c.overfetch {
			fetch = limit * c.overfetch
		}
	}

	candidates, err := c.index.Search(query, fetch, ef.Value())
	if err != nil {
		return nil, translateError(err)
	}

	results := make([]Point, 0, min(limit, len(candidates)))
	for _, r := range candidates {
		slot := int(r.ID)
		if slot >= len(c.points) {
			continue
		}
		p := c.points[slot]
		if !model.MatchesAny(filters, p.Metadata) {
			continue
		}
		results = append(results, p.Clone())
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

// state copies the durable fields of the collection.
func (c *Collection) state() persistence.CollectionState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := make([]Point, len(c.points))
	copy(points, c.points)

	return persistence.CollectionState{
		Config:   c.config,
		Points:   points,
		IDToSlot: maps.Clone(c.idToSlot),
	}
}
