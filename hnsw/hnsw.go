package hnsw

import (
	"math"
	"math/rand"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/pikodb/distance"
	"github.com/hupe1980/pikodb/index"
	"github.com/hupe1980/pikodb/model"
	"github.com/hupe1980/pikodb/queue"
)

// Compile-time check to ensure HNSW satisfies the index interface.
var _ index.Index = (*HNSW)(nil)

// DefaultSeed seeds the level generator when Options.Seed is zero.
const DefaultSeed int64 = 0x70696b6f

// node is a vertex of the graph.
type node struct {
	slot        uint32
	vector      []float32
	layer       int
	connections [][]uint32 // per layer, 0..layer
}

// Options represents the options for configuring HNSW.
type Options struct {
	// M specifies the number of established connections for every new element during construction.
	// Layer 0 allows 2*M connections.
	M int

	// EF specifies the size of the dynamic candidate list during construction.
	EF int

	// Heuristic selects neighbours with the diversity heuristic instead of plain nearest-M.
	Heuristic bool

	// Seed seeds the level generator. Zero selects DefaultSeed.
	Seed int64
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	M:         16,
	EF:        model.DefaultBuildQuality.Value(),
	Heuristic: true,
}

// WithSeed sets the level generator seed.
func WithSeed(seed int64) func(o *Options) {
	return func(o *Options) { o.Seed = seed }
}

// HNSW represents the Hierarchical Navigable Small World graph.
type HNSW struct {
	mu sync.RWMutex

	dimension int
	mmax      int     // Max number of connections per element/per layer
	mmax0     int     // Max for the 0 layer
	ml        float64 // Normalization factor for level generation
	ep        uint32  // Entry point
	maxLevel  int     // Layer of the entry point

	nodes      []*node
	live       map[uint32]uint32 // slot -> current node
	superseded *roaring.Bitmap

	rng  *rand.Rand
	opts Options
}

// New creates a new HNSW instance with the given dimension and options.
func New(dimension int, optFns ...func(o *Options)) (*HNSW, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if dimension <= 0 {
		return nil, &model.InvalidDimensionError{Dimension: dimension}
	}
	if opts.M < 2 {
		// 1 / log(1) is undefined
		opts.M = 2
	}
	if opts.EF <= 0 {
		opts.EF = DefaultOptions.EF
	}
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}

	return &HNSW{
		dimension:  dimension,
		mmax:       opts.M,
		mmax0:      2 * opts.M,
		ml:         1 / math.Log(float64(opts.M)),
		live:       make(map[uint32]uint32),
		superseded: roaring.New(),
		rng:        rand.New(rand.NewSource(opts.Seed)), // nolint gosec
		opts:       opts,
	}, nil
}

// Factory is an index.Factory producing HNSW graphs whose construction
// effort follows the configured build quality.
func Factory(dim int, cfg model.IndexConfig) (index.Index, error) {
	return New(dim, func(o *Options) {
		o.EF = cfg.BuildQuality.Value()
	})
}

// Len returns the number of distinct slots.
func (h *HNSW) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.live)
}

// Insert inserts vector under slot.
func (h *HNSW) Insert(v []float32, slot uint32) error {
	if err := index.CheckDimension(h.dimension, v); err != nil {
		return err
	}

	vec, err := index.Normalize(v)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := uint32(len(h.nodes))
	n := &node{
		slot:   slot,
		vector: vec,
		layer:  h.randomLevel(),
	}
	n.connections = make([][]uint32, n.layer+1)

	if old, ok := h.live[slot]; ok {
		h.superseded.Add(old)
	}

	if len(h.nodes) == 0 {
		h.nodes = append(h.nodes, n)
		h.live[slot] = id
		h.ep = id
		h.maxLevel = n.layer
		return nil
	}

	entry := h.greedyDescend(vec, n.layer)

	for level := min(n.layer, h.maxLevel); level >= 0; level-- {
		candidates := h.searchLayer(vec, entry, h.opts.EF, level)
		n.connections[level] = h.selectNeighbours(h.preferLive(candidates), h.opts.M)
		entry = candidates[0]
	}

	h.nodes = append(h.nodes, n)
	h.live[slot] = id

	// Next link the neighbour nodes to our new node, making it visible
	for level := min(n.layer, h.maxLevel); level >= 0; level-- {
		for _, neighbour := range n.connections[level] {
			h.link(neighbour, id, level)
		}
	}

	if n.layer > h.maxLevel {
		h.ep = id
		h.maxLevel = n.layer
	}

	return nil
}

// Search performs a k-nearest neighbor search.
func (h *HNSW) Search(query []float32, k, ef int) ([]index.SearchResult, error) {
	if err := index.CheckDimension(h.dimension, query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	q, err := index.Normalize(query)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.nodes) == 0 {
		return nil, nil
	}

	// Superseded nodes occupy candidate slots.
	stale := int(h.superseded.GetCardinality())
	k = min(k, len(h.nodes)-stale)
	size := min(max(ef, k), len(h.nodes)-stale) + stale

	entry := h.greedyDescend(q, 0)
	candidates := h.searchLayer(q, entry, size, 0)

	results := make([]index.SearchResult, 0, min(k, len(candidates)))
	for _, c := range candidates {
		if h.superseded.Contains(c.Node) {
			continue
		}
		results = append(results, index.SearchResult{ID: h.nodes[c.Node].slot, Distance: c.Distance})
		if len(results) == k {
			break
		}
	}

	return results, nil
}

func (h *HNSW) randomLevel() int {
	// 1 - Float64() is in (0, 1], keeping the logarithm finite.
	return int(math.Floor(-math.Log(1-h.rng.Float64()) * h.ml))
}

func (h *HNSW) dist(q []float32, id uint32) float32 {
	return distance.NormalizedCosine(q, h.nodes[id].vector)
}

// greedyDescend walks from the entry point down to targetLevel+1, moving to
// the closest neighbour on each layer, and returns the entry for targetLevel.
func (h *HNSW) greedyDescend(q []float32, targetLevel int) queue.Item {
	curr := queue.Item{Node: h.ep, Distance: h.dist(q, h.ep)}

	for level := h.maxLevel; level > targetLevel; level-- {
		changed := true
		for changed {
			changed = false

			for _, id := range h.nodes[curr.Node].connections[level] {
				if d := h.dist(q, id); d < curr.Distance {
					curr = queue.Item{Node: id, Distance: d}
					changed = true
				}
			}
		}
	}

	return curr
}

// searchLayer returns up to ef nodes of the given layer closest to q,
// closest first.
func (h *HNSW) searchLayer(q []float32, ep queue.Item, ef int, level int) []queue.Item {
	var visited bitset.BitSet

	visited.Set(uint(ep.Node))

	capacity := min(ef, len(h.nodes))

	candidates := queue.NewMin(capacity)
	candidates.PushItem(ep)

	topCandidates := queue.NewMax(capacity + 1)
	topCandidates.PushItem(ep)

	for candidates.Len() > 0 {
		candidate, _ := candidates.PopItem()
		worst, _ := topCandidates.Top()
		if candidate.Distance > worst.Distance && topCandidates.Len() >= ef {
			break
		}

		n := h.nodes[candidate.Node]
		if level >= len(n.connections) {
			continue
		}

		for _, id := range n.connections[level] {
			if visited.Test(uint(id)) {
				continue
			}
			visited.Set(uint(id))

			item := queue.Item{Node: id, Distance: h.dist(q, id)}
			worst, _ := topCandidates.Top()

			if topCandidates.Len() < ef || item.Distance < worst.Distance {
				topCandidates.PushItem(item)
				candidates.PushItem(item)
				if topCandidates.Len() > ef {
					topCandidates.PopItem()
				}
			}
		}
	}

	return topCandidates.Sorted()
}

// preferLive drops superseded nodes from candidates unless none would remain.
func (h *HNSW) preferLive(candidates []queue.Item) []queue.Item {
	if h.superseded.IsEmpty() {
		return candidates
	}

	live := make([]queue.Item, 0, len(candidates))
	for _, c := range candidates {
		if !h.superseded.Contains(c.Node) {
			live = append(live, c)
		}
	}
	if len(live) == 0 {
		return candidates
	}
	return live
}

// selectNeighbours picks up to m nodes from candidates (closest first).
func (h *HNSW) selectNeighbours(candidates []queue.Item, m int) []uint32 {
	if !h.opts.Heuristic || len(candidates) <= m {
		out := make([]uint32, 0, min(m, len(candidates)))
		for _, c := range candidates[:min(m, len(candidates))] {
			out = append(out, c.Node)
		}
		return out
	}

	selected := make([]uint32, 0, m)
	pruned := make([]uint32, 0, len(candidates))

	for _, c := range candidates {
		if len(selected) >= m {
			break
		}

		hit := true
		// Keep c only if it is closer to the base than to every selected neighbour
		for _, s := range selected {
			if distance.NormalizedCosine(h.nodes[s].vector, h.nodes[c.Node].vector) < c.Distance {
				hit = false
				break
			}
		}

		if hit {
			selected = append(selected, c.Node)
		} else {
			pruned = append(pruned, c.Node)
		}
	}

	for _, id := range pruned {
		if len(selected) >= m {
			break
		}
		selected = append(selected, id)
	}

	return selected
}

// link adds an edge first -> second on level and prunes first's adjacency
// list back to the layer limit.
func (h *HNSW) link(first, second uint32, level int) {
	maxConnections := h.mmax
	if level == 0 {
		maxConnections = h.mmax0
	}

	n := h.nodes[first]
	n.connections[level] = append(n.connections[level], second)

	if len(n.connections[level]) <= maxConnections {
		return
	}

	pq := queue.NewMin(len(n.connections[level]))
	for _, id := range n.connections[level] {
		pq.PushItem(queue.Item{Node: id, Distance: distance.NormalizedCosine(n.vector, h.nodes[id].vector)})
	}

	n.connections[level] = h.selectNeighbours(pq.Sorted(), maxConnections)
}
