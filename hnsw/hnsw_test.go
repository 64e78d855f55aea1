package hnsw

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pikodb/index"
	"github.com/hupe1980/pikodb/model"
	"github.com/hupe1980/pikodb/testutil"
)

func newGraph(t *testing.T, dim int, optFns ...func(o *Options)) *HNSW {
	t.Helper()
	h, err := New(dim, optFns...)
	require.NoError(t, err)
	return h
}

func TestNew(t *testing.T) {
	_, err := New(0)
	var ide *model.InvalidDimensionError
	require.ErrorAs(t, err, &ide)

	h := newGraph(t, 4, func(o *Options) { o.M = 1 })
	assert.Equal(t, 2, h.mmax)
	assert.Equal(t, 4, h.mmax0)
	assert.Equal(t, DefaultSeed, h.opts.Seed)
}

func TestEmpty(t *testing.T) {
	h := newGraph(t, 3)

	res, err := h.Search([]float32{1, 0, 0}, 5, 50)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Equal(t, 0, h.Len())
}

func TestInsertAndSearch(t *testing.T) {
	h := newGraph(t, 3)

	require.NoError(t, h.Insert([]float32{1, 0, 0}, 0))
	require.NoError(t, h.Insert([]float32{0, 1, 0}, 1))
	require.NoError(t, h.Insert([]float32{0, 0, 1}, 2))
	assert.Equal(t, 3, h.Len())

	res, err := h.Search([]float32{0.9, 0.1, 0}, 2, 50)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, uint32(0), res[0].ID)
	assert.Equal(t, uint32(1), res[1].ID)
	assert.LessOrEqual(t, res[0].Distance, res[1].Distance)

	res, err = h.Search([]float32{1, 0, 0}, 0, 50)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestDimensionMismatch(t *testing.T) {
	h := newGraph(t, 3)

	err := h.Insert([]float32{1, 0}, 0)
	var dm *index.ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)
	assert.Equal(t, 0, h.Len())

	_, err = h.Search([]float32{1}, 1, 10)
	require.ErrorAs(t, err, &dm)
}

func TestReinsertSupersedes(t *testing.T) {
	h := newGraph(t, 2)

	require.NoError(t, h.Insert([]float32{1, 0}, 0))
	require.NoError(t, h.Insert([]float32{0, 1}, 1))
	require.NoError(t, h.Insert([]float32{-1, 0}, 0))
	assert.Equal(t, 2, h.Len())

	res, err := h.Search([]float32{1, 0}, 10, 50)
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, uint32(1), res[0].ID)
	assert.InDelta(t, 1, res[0].Distance, 1e-6)
	assert.Equal(t, uint32(0), res[1].ID)
	assert.InDelta(t, 2, res[1].Distance, 1e-6)
}

func TestReinsertManyTimes(t *testing.T) {
	rng := testutil.NewRNG(7)
	h := newGraph(t, 8)

	for round := 0; round < 5; round++ {
		for i, v := range rng.UniformRangeVectors(50, 8) {
			require.NoError(t, h.Insert(v, uint32(i)))
		}
	}
	assert.Equal(t, 50, h.Len())

	res, err := h.Search(rng.UnitVector(8), 50, 50)
	require.NoError(t, err)

	seen := make(map[uint32]bool)
	for _, r := range res {
		assert.False(t, seen[r.ID], "slot %d returned twice", r.ID)
		seen[r.ID] = true
	}
	assert.GreaterOrEqual(t, len(res), 45)
}

func TestZeroVector(t *testing.T) {
	h := newGraph(t, 2)

	require.NoError(t, h.Insert([]float32{0, 0}, 0))
	require.NoError(t, h.Insert([]float32{1, 0}, 1))

	res, err := h.Search([]float32{1, 0}, 2, 10)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, uint32(1), res[0].ID)
	assert.InDelta(t, 1, res[1].Distance, 1e-6)
}

func TestDeterministic(t *testing.T) {
	vectors := testutil.NewRNG(11).UniformRangeVectors(300, 16)
	query := testutil.NewRNG(12).UnitVector(16)

	build := func() []index.SearchResult {
		h := newGraph(t, 16, WithSeed(99))
		for i, v := range vectors {
			require.NoError(t, h.Insert(v, uint32(i)))
		}
		res, err := h.Search(query, 10, 20)
		require.NoError(t, err)
		return res
	}

	assert.Equal(t, build(), build())
}

func TestRecall(t *testing.T) {
	const (
		n   = 1000
		dim = 32
		k   = 10
	)

	rng := testutil.NewRNG(4711)
	vectors := rng.UniformRangeVectors(n, dim)

	idx, err := Factory(dim, model.NewIndexConfig(model.BuildStandard, model.CustomEmbedding(dim)))
	require.NoError(t, err)
	for i, v := range vectors {
		require.NoError(t, idx.Insert(v, uint32(i)))
	}

	var total float64
	const queries = 20
	for range queries {
		q := rng.UnitVector(dim)
		truth := testutil.ExactTopK(q, vectors, k)

		res, err := idx.Search(q, k, model.EfAccurate.Value())
		require.NoError(t, err)

		approx := make([]testutil.SearchResult, len(res))
		for i, r := range res {
			approx[i] = testutil.SearchResult{ID: r.ID, Distance: r.Distance}
		}
		total += testutil.ComputeRecall(truth, approx)
	}

	assert.GreaterOrEqual(t, total/queries, 0.95)
}

func TestConnectionLimits(t *testing.T) {
	h := newGraph(t, 8, func(o *Options) { o.M = 4 })
	for i, v := range testutil.NewRNG(3).UniformRangeVectors(200, 8) {
		require.NoError(t, h.Insert(v, uint32(i)))
	}

	for _, n := range h.nodes {
		for level, conns := range n.connections {
			limit := h.mmax
			if level == 0 {
				limit = h.mmax0
			}
			assert.LessOrEqual(t, len(conns), limit)
		}
	}
}

func TestSearchHugeK(t *testing.T) {
	h := newGraph(t, 3)

	require.NoError(t, h.Insert([]float32{1, 0, 0}, 0))
	require.NoError(t, h.Insert([]float32{0, 1, 0}, 1))
	require.NoError(t, h.Insert([]float32{0, 0, 1}, 1))

	for _, tc := range []struct{ k, ef int }{
		{1 << 40, 50},
		{1 << 40, 1 << 40},
		{math.MaxInt, math.MaxInt},
	} {
		res, err := h.Search([]float32{1, 0, 0}, tc.k, tc.ef)
		require.NoError(t, err)
		require.Len(t, res, 2)
		assert.Equal(t, uint32(0), res[0].ID)
		assert.Equal(t, uint32(1), res[1].ID)
	}
}
