package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingType(t *testing.T) {
	tests := []struct {
		name    string
		e       EmbeddingType
		dim     int
		wantErr bool
	}{
		{"Small", TextEmbedding3Small, 1536, false},
		{"Large", TextEmbedding3Large, 3072, false},
		{"Custom", CustomEmbedding(3), 3, false},
		{"CustomZero", CustomEmbedding(0), 0, true},
		{"CustomNegative", CustomEmbedding(-2), -2, true},
		{"Unknown", EmbeddingType{Model: 42}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.dim, tt.e.Dimension())
			err := tt.e.Validate()
			if tt.wantErr {
				var ide *InvalidDimensionError
				require.ErrorAs(t, err, &ide)
				assert.Equal(t, tt.dim, ide.Dimension)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestEmbeddingTypeJSON(t *testing.T) {
	data, err := json.Marshal(TextEmbedding3Large)
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"text-embedding-3-large"}`, string(data))

	var e EmbeddingType
	require.NoError(t, json.Unmarshal([]byte(`{"model":"custom","dim":8}`), &e))
	assert.Equal(t, CustomEmbedding(8), e)

	require.Error(t, json.Unmarshal([]byte(`{"model":"nope"}`), &e))
}

func TestBuildQuality(t *testing.T) {
	assert.Equal(t, 100, BuildQuick.Value())
	assert.Equal(t, 200, BuildStandard.Value())
	assert.Equal(t, 400, BuildRobust.Value())
	assert.Equal(t, BuildStandard, DefaultBuildQuality)

	q, err := ParseBuildQuality("Robust")
	require.NoError(t, err)
	assert.Equal(t, BuildRobust, q)

	_, err = ParseBuildQuality("insane")
	require.Error(t, err)
}

func TestIndexConfig(t *testing.T) {
	cfg := QuickIndex(CustomEmbedding(4))
	assert.Equal(t, BuildQuick, cfg.BuildQuality)
	assert.Equal(t, 4, cfg.Dimension())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, BuildStandard, StandardIndex(TextEmbedding3Small).BuildQuality)
	assert.Equal(t, BuildRobust, RobustIndex(TextEmbedding3Small).BuildQuality)

	bad := NewIndexConfig(BuildQuality(9), TextEmbedding3Small)
	require.Error(t, bad.Validate())
}

func TestEfSearch(t *testing.T) {
	assert.Equal(t, 50, EfFast.Value())
	assert.Equal(t, 200, EfBalanced.Value())
	assert.Equal(t, 500, EfAccurate.Value())

	ef, err := ParseEfSearch("")
	require.NoError(t, err)
	assert.Equal(t, EfBalanced, ef)
}

func TestMetadataFilter(t *testing.T) {
	md := map[string]string{"lang": "go", "kind": "doc"}

	assert.True(t, MetadataFilter{}.Matches(md))
	assert.True(t, MetadataFilter{"lang": "go"}.Matches(md))
	assert.True(t, MetadataFilter{"lang": "go", "kind": "doc"}.Matches(md))
	assert.False(t, MetadataFilter{"lang": "go", "kind": "blog"}.Matches(md))
	assert.False(t, MetadataFilter{"tier": "gold"}.Matches(md))

	assert.True(t, MatchesAny(nil, md))
	assert.True(t, MatchesAny([]MetadataFilter{{"lang": "rust"}, {"kind": "doc"}}, md))
	assert.False(t, MatchesAny([]MetadataFilter{{"lang": "rust"}, {"kind": "blog"}}, md))
}

func TestPoint(t *testing.T) {
	p := NewPoint([]float32{1, 2}, map[string]string{"a": "b"})
	assert.Len(t, p.ID, 36)

	q := NewPoint([]float32{1, 2}, nil)
	assert.NotEqual(t, p.ID, q.ID)

	c := p.Clone()
	c.Vector[0] = 9
	c.Metadata["a"] = "z"
	assert.Equal(t, float32(1), p.Vector[0])
	assert.Equal(t, "b", p.Metadata["a"])

	w := NewPointWithID("fixed", []float32{0}, nil)
	assert.Equal(t, "fixed", w.ID)
}
