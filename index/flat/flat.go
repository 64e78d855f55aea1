// Package flat provides an exhaustive-scan index.
//
// Flat compares the query against every stored vector and orders results by
// cosine distance with ties broken by ascending slot. It is exact, which
// makes it the reference for recall tests and a fit for tiny collections.
package flat

import (
	"fmt"
	"sync"

	"github.com/hupe1980/pikodb/distance"
	"github.com/hupe1980/pikodb/index"
	"github.com/hupe1980/pikodb/model"
	"github.com/hupe1980/pikodb/queue"
)

// Compile-time check to ensure Flat satisfies the index interface.
var _ index.Index = (*Flat)(nil)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	Dimension int
}

// Flat is an exhaustive-scan cosine index.
type Flat struct {
	mu      sync.RWMutex
	opts    Options
	vectors [][]float32 // normalized, indexed by slot; nil means empty
	count   int
}

// New creates a new instance of the flat index.
func New(optFns ...func(o *Options)) (*Flat, error) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("flat: invalid dimension: %d", opts.Dimension)
	}
	return &Flat{opts: opts}, nil
}

// Factory is an index.Factory producing flat indexes.
func Factory(dim int, _ model.IndexConfig) (index.Index, error) {
	return New(func(o *Options) { o.Dimension = dim })
}

// Insert stores vector under slot, replacing any previous vector.
func (f *Flat) Insert(vector []float32, slot uint32) error {
	if err := index.CheckDimension(f.opts.Dimension, vector); err != nil {
		return err
	}
	v, err := index.Normalize(vector)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if int(slot) >= len(f.vectors) {
		grown := make([][]float32, int(slot)+1)
		copy(grown, f.vectors)
		f.vectors = grown
	}
	if f.vectors[slot] == nil {
		f.count++
	}
	f.vectors[slot] = v
	return nil
}

// Search returns the k closest slots. ef is ignored.
func (f *Flat) Search(query []float32, k, _ int) ([]index.SearchResult, error) {
	if err := index.CheckDimension(f.opts.Dimension, query); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	q, err := index.Normalize(query)
	if err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	pq := queue.NewMax(min(k, len(f.vectors)) + 1)
	for slot, v := range f.vectors {
		if v == nil {
			continue
		}
		pq.PushItem(queue.Item{Node: uint32(slot), Distance: distance.NormalizedCosine(q, v)})
		if pq.Len() > k {
			pq.PopItem()
		}
	}

	items := pq.Sorted()
	results := make([]index.SearchResult, len(items))
	for i, it := range items {
		results[i] = index.SearchResult{ID: it.Node, Distance: it.Distance}
	}
	return results, nil
}

// Len returns the number of stored slots.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}
