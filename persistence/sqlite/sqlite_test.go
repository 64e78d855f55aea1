package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pikodb/codec"
	"github.com/hupe1980/pikodb/model"
	"github.com/hupe1980/pikodb/persistence"
)

func state(ids ...string) *persistence.State {
	s := persistence.NewState()
	cs := persistence.CollectionState{
		Config:   model.StandardIndex(model.CustomEmbedding(3)),
		IDToSlot: make(map[string]int),
	}
	for i, id := range ids {
		cs.Points = append(cs.Points, model.NewPointWithID(id, []float32{float32(i), 1, 0}, nil))
		cs.IDToSlot[id] = i
	}
	s.Collections["docs"] = cs
	return s
}

func TestAdapter(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "pikodb.sqlite")

	a, err := Open(ctx, path, func(o *Options) {
		o.Format = persistence.Format{Codec: codec.JSON{}, Compression: persistence.CompressionZSTD}
	})
	require.NoError(t, err)
	assert.Equal(t, path, a.Path())

	_, err = a.Load(ctx)
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))

	_, err = a.SavedAt(ctx)
	assert.ErrorIs(t, err, persistence.ErrSnapshotNotFound)

	before := time.Now().Add(-time.Second)
	require.NoError(t, a.Save(ctx, state("a", "b")))
	require.NoError(t, a.Save(ctx, state("a", "b", "c")))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Collections["docs"].Points, 3)
	assert.Equal(t, 2, got.Collections["docs"].IDToSlot["c"])

	savedAt, err := a.SavedAt(ctx)
	require.NoError(t, err)
	assert.True(t, savedAt.After(before))

	var rows int
	require.NoError(t, a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshot").Scan(&rows))
	assert.Equal(t, 1, rows)

	require.NoError(t, a.Close())

	// Reopen sees the last snapshot
	b, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Len())
}

func TestAdapterInMemory(t *testing.T) {
	ctx := context.Background()

	a, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.NoError(t, a.Save(ctx, state("x")))
	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestAdapterCorruptRow(t *testing.T) {
	ctx := context.Background()

	a, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	_, err = a.db.ExecContext(ctx, "INSERT INTO snapshot (id, data, saved_at) VALUES (1, ?, 0)", []byte("junk"))
	require.NoError(t, err)

	_, err = a.Load(ctx)
	var de *persistence.DeserializationError
	require.ErrorAs(t, err, &de)
	assert.False(t, persistence.IsNotFound(err))
}
