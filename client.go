package pikodb

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/pikodb/persistence"
)

// Client is a store of named collections with optional durability.
//
// Mutations (CreateCollection, GetOrCreateCollection, UpsertPoints, Persist)
// run one at a time and write a full snapshot through the adapter before they
// return. Queries run concurrently with each other.
type Client struct {
	mu          sync.RWMutex
	collections map[string]*Collection

	// persistent is false for InMemory clients, whose persist step is a no-op.
	persistent bool
	adapter    persistence.Adapter

	opts options
}

// InMemory creates a client without durability.
func InMemory(optFns ...Option) *Client {
	return &Client{
		collections: make(map[string]*Collection),
		opts:        applyOptions(optFns),
	}
}

// Persistent creates a client backed by adapter, loading its snapshot and
// rebuilding every collection's index.
//
// A missing snapshot starts an empty store unless WithStrictLoad is set.
// A corrupt snapshot fails with *PersistenceError wrapping
// *persistence.DeserializationError.
//
// A nil adapter yields a client whose mutations apply in memory and then
// report persistence.ErrNotConfigured.
func Persistent(ctx context.Context, adapter persistence.Adapter, optFns ...Option) (*Client, error) {
	c := &Client{
		collections: make(map[string]*Collection),
		persistent:  true,
		adapter:     adapter,
		opts:        applyOptions(optFns),
	}

	if adapter == nil {
		return c, nil
	}

	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) load(ctx context.Context) error {
	start := time.Now()

	state, err := c.adapter.Load(ctx)
	if err != nil {
		if persistence.IsNotFound(err) && !c.opts.strictLoad {
			c.opts.logger.WarnContext(ctx, "no snapshot found, starting empty", "error", err)
			c.opts.metricsCollector.RecordLoad(0, 0, time.Since(start), nil)
			return nil
		}
		err = persistenceError(err)
		c.opts.logger.LogLoad(ctx, 0, 0, time.Since(start), err)
		c.opts.metricsCollector.RecordLoad(0, 0, time.Since(start), err)
		return err
	}

	names := make([]string, 0, len(state.Collections))
	for name := range state.Collections {
		names = append(names, name)
	}
	slices.Sort(names)

	rebuilt := make([]*Collection, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.rebuildConcurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			coll, err := collectionFromState(name, state.Collections[name], c.opts.indexFactory, c.opts.overfetchFactor)
			if err != nil {
				return err
			}
			rebuilt[i] = coll
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var de *persistence.DeserializationError
		if errors.As(err, &de) {
			err = persistenceError(err)
		}
		c.opts.logger.LogLoad(ctx, 0, 0, time.Since(start), err)
		c.opts.metricsCollector.RecordLoad(0, 0, time.Since(start), err)
		return err
	}

	for i, name := range names {
		c.collections[name] = rebuilt[i]
	}

	c.opts.logger.LogLoad(ctx, len(names), state.Len(), time.Since(start), nil)
	c.opts.metricsCollector.RecordLoad(len(names), state.Len(), time.Since(start), nil)
	return nil
}

// CreateCollection registers an empty collection named name.
//
// An existing name is a no-op success. If its stored config differs from
// cfg, the drift is logged, or *ErrConfigMismatch is returned under
// WithStrictConfig.
func (c *Client) CreateCollection(ctx context.Context, name string, cfg IndexConfig) error {
	_, err := c.GetOrCreateCollection(ctx, name, cfg)
	return err
}

// Collection returns the collection named name.
func (c *Client) Collection(name string) (*Collection, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collection(name)
}

func (c *Client) collection(name string) (*Collection, error) {
	coll, ok := c.collections[name]
	if !ok {
		return nil, &ErrCollectionNotFound{Name: name}
	}
	return coll, nil
}

// GetOrCreateCollection returns the collection named name, creating and
// persisting it first if needed.
//
// If the collection was created but the snapshot could not be written, the
// collection is returned together with the *PersistenceError.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string, cfg IndexConfig) (*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.collections[name]; ok {
		if existing.Config() != cfg {
			if c.opts.strictConfig {
				return nil, &ErrConfigMismatch{Name: name, Existing: existing.Config(), Requested: cfg}
			}
			c.opts.logger.LogConfigDrift(ctx, name, existing.Config(), cfg)
		}
		return existing, nil
	}

	coll, err := newCollection(name, cfg, c.opts.indexFactory, c.opts.overfetchFactor)
	if err != nil {
		c.opts.logger.LogCreate(ctx, name, cfg, err)
		return nil, err
	}

	c.collections[name] = coll
	c.opts.logger.LogCreate(ctx, name, cfg, nil)

	if err := c.persistLocked(ctx); err != nil {
		return coll, err
	}
	return coll, nil
}

// UpsertPoints upserts points in order into the named collection, stopping
// at the first failure, and then persists once.
//
// Points before a failing point stay applied. The upsert error is returned
// as is; if the following persist fails as well, both are joined.
func (c *Client) UpsertPoints(ctx context.Context, name string, points []Point) error {
	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	coll, err := c.collection(name)
	if err != nil {
		return err
	}

	applied := 0
	var upsertErr error
	for _, p := range points {
		if upsertErr = coll.Upsert(p); upsertErr != nil {
			break
		}
		applied++
	}

	c.opts.logger.LogUpsert(ctx, name, len(points), applied, upsertErr)
	c.opts.metricsCollector.RecordUpsert(len(points), applied, time.Since(start))

	if upsertErr != nil && applied == 0 {
		return upsertErr
	}

	persistErr := c.persistLocked(ctx)
	if upsertErr != nil && persistErr != nil {
		return errors.Join(upsertErr, persistErr)
	}
	if upsertErr != nil {
		return upsertErr
	}
	return persistErr
}

// Query returns up to limit points of the named collection closest to vector.
func (c *Client) Query(ctx context.Context, name string, vector []float32, limit int, ef EfSearch) ([]Point, error) {
	return c.QueryWithFilter(ctx, name, vector, limit, ef, nil)
}

// QueryWithFilter is like Query but keeps only points matching at least one
// filter. It never persists.
func (c *Client) QueryWithFilter(ctx context.Context, name string, vector []float32, limit int, ef EfSearch, filters []MetadataFilter) ([]Point, error) {
	if err := c.opts.resources.AcquireQuery(ctx); err != nil {
		return nil, err
	}
	defer c.opts.resources.ReleaseQuery()

	start := time.Now()

	c.mu.RLock()
	coll, err := c.collection(name)
	c.mu.RUnlock()

	var results []Point
	if err == nil {
		results, err = coll.SearchWithFilter(vector, limit, ef, filters)
	}

	c.opts.logger.LogSearch(ctx, name, limit, len(results), err)
	c.opts.metricsCollector.RecordSearch(limit, len(results), time.Since(start), err)

	return results, err
}

// CollectionNames returns the names of all collections, sorted.
func (c *Client) CollectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.collections))
	for name := range c.collections {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Persist writes a full snapshot. It is a no-op for InMemory clients.
func (c *Client) Persist(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistLocked(ctx)
}

// Close releases the adapter if it holds resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if closer, ok := c.adapter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// snapshot builds the persisted state of every collection.
// The caller must hold c.mu.
func (c *Client) snapshot() (*persistence.State, uint64) {
	state := persistence.NewState()
	var size uint64
	for name, coll := range c.collections {
		cs := coll.state()
		for _, p := range cs.Points {
			size += uint64(len(p.ID) + 4*len(p.Vector))
			for k, v := range p.Metadata {
				size += uint64(len(k) + len(v))
			}
		}
		state.Collections[name] = cs
	}
	return state, size
}

// persistLocked saves the whole store. The caller must hold c.mu exclusively.
func (c *Client) persistLocked(ctx context.Context) error {
	if !c.persistent {
		return nil
	}
	if c.adapter == nil {
		return persistenceError(persistence.ErrNotConfigured)
	}

	start := time.Now()
	state, size := c.snapshot()

	err := c.adapter.Save(ctx, state)
	if err != nil {
		err = persistenceError(err)
	}

	c.opts.logger.LogPersist(ctx, len(state.Collections), state.Len(), size, time.Since(start), err)
	c.opts.metricsCollector.RecordPersist(state.Len(), time.Since(start), err)

	return err
}
