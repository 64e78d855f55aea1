package persistence

import (
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/pikodb/codec"
	"github.com/hupe1980/pikodb/model"
	"github.com/hupe1980/pikodb/testutil"
)

func sampleState(t *testing.T) *State {
	t.Helper()

	rng := testutil.NewRNG(7)
	docs := rng.Points(50, 8, 3)
	docsMap := make(map[string]int, len(docs))
	for i, p := range docs {
		docsMap[p.ID] = i
	}

	bare := []model.Point{
		model.NewPointWithID("a", make([]float32, 1536), nil),
		model.NewPointWithID("b", make([]float32, 1536), map[string]string{}),
	}

	s := NewState()
	s.Collections["docs"] = CollectionState{
		Config:   model.RobustIndex(model.CustomEmbedding(8)),
		Points:   docs,
		IDToSlot: docsMap,
	}
	s.Collections["bare"] = CollectionState{
		Config:   model.QuickIndex(model.TextEmbedding3Small),
		Points:   bare,
		IDToSlot: map[string]int{"a": 0, "b": 1},
	}
	s.Collections["empty"] = CollectionState{
		Config:   model.StandardIndex(model.CustomEmbedding(3)),
		Points:   []model.Point{},
		IDToSlot: map[string]int{},
	}
	require.NoError(t, s.Validate())
	return s
}

func TestFormatRoundTrip(t *testing.T) {
	want := sampleState(t)

	for _, name := range codec.Names() {
		for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
			t.Run(fmt.Sprintf("%s/%s", name, comp), func(t *testing.T) {
				c, ok := codec.ByName(name)
				require.True(t, ok)

				data, err := Format{Codec: c, Compression: comp}.Encode(want)
				require.NoError(t, err)

				hdr, _, err := ReadHeader(data)
				require.NoError(t, err)
				assert.Equal(t, Version, hdr.Version)
				assert.Equal(t, comp, hdr.Compression)
				assert.Equal(t, name, hdr.Codec)

				got, err := Decode(data)
				require.NoError(t, err)
				assert.Len(t, got.Collections, len(want.Collections))
				for cname, wc := range want.Collections {
					gc, ok := got.Collections[cname]
					require.True(t, ok, cname)
					assert.Equal(t, wc.Config, gc.Config)
					assert.Equal(t, wc.IDToSlot, gc.IDToSlot)
					require.Len(t, gc.Points, len(wc.Points))
					// Nil and empty metadata survive as written
					assert.Equal(t, wc.Points, gc.Points)
				}
				require.NoError(t, got.Validate())
			})
		}
	}
}

func TestFormatEmptyState(t *testing.T) {
	data, err := DefaultFormat.Encode(nil)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.NotNil(t, got.Collections)
	assert.Equal(t, 0, got.Len())
}

func TestBinaryDeterministic(t *testing.T) {
	s := sampleState(t)

	a, err := DefaultFormat.Encode(s)
	require.NoError(t, err)
	b, err := DefaultFormat.Encode(s)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBinaryRejectsInconsistentIDMap(t *testing.T) {
	s := NewState()
	s.Collections["c"] = CollectionState{
		Config:   model.QuickIndex(model.CustomEmbedding(1)),
		Points:   []model.Point{model.NewPointWithID("x", []float32{1}, nil)},
		IDToSlot: map[string]int{"x": 3},
	}

	_, err := DefaultFormat.Encode(s)
	var se *SerializationError
	require.ErrorAs(t, err, &se)
}

func TestDecodeCorrupt(t *testing.T) {
	good, err := Format{Codec: codec.Binary{}, Compression: CompressionZSTD}.Encode(sampleState(t))
	require.NoError(t, err)

	hdrLen := len(good) - int(binary.LittleEndian.Uint64(good[fixedHeaderSize+len("binary"):]))

	mutate := func(fn func(b []byte) []byte) []byte {
		b := append([]byte(nil), good...)
		return fn(b)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"ShortHeader", good[:3]},
		{"BadMagic", mutate(func(b []byte) []byte { b[0] = 'X'; return b })},
		{"BadVersion", mutate(func(b []byte) []byte { b[4] = 9; return b })},
		{"BadCompression", mutate(func(b []byte) []byte { b[6] = 7; return b })},
		{"BadCodec", mutate(func(b []byte) []byte { b[8] = 'X'; return b })},
		{"TruncatedHeader", good[:fixedHeaderSize+3]},
		{"TruncatedPayload", good[:len(good)-1]},
		{"TrailingGarbage", append(append([]byte(nil), good...), 0)},
		{"FlippedPayloadByte", mutate(func(b []byte) []byte { b[hdrLen+len(b[hdrLen:])/2] ^= 0xff; return b })},
		{"FlippedChecksum", mutate(func(b []byte) []byte { b[hdrLen-1] ^= 0x01; return b })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			var de *DeserializationError
			require.ErrorAs(t, err, &de)
		})
	}
}

func TestDecodeErrorKinds(t *testing.T) {
	good, err := DefaultFormat.Encode(sampleState(t))
	require.NoError(t, err)

	bad := append([]byte(nil), good...)
	bad[0] = 'Q'
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrInvalidMagic)

	bad = append([]byte(nil), good...)
	bad[len(bad)-1] ^= 0xff
	_, err = Decode(bad)
	var cm *ChecksumMismatchError
	assert.ErrorAs(t, err, &cm)

	// A valid frame around an unparsable payload is still a deserialization error.
	payload := []byte("not a state")
	frame := make([]byte, 0, 64)
	frame = append(frame, Magic...)
	frame = binary.LittleEndian.AppendUint16(frame, Version)
	frame = append(frame, uint8(CompressionNone), uint8(len("json")))
	frame = append(frame, "json"...)
	frame = binary.LittleEndian.AppendUint64(frame, uint64(len(payload)))
	frame = binary.LittleEndian.AppendUint32(frame, CalculateChecksum(payload))
	frame = append(frame, payload...)

	_, err = Decode(frame)
	var de *DeserializationError
	require.ErrorAs(t, err, &de)
	assert.NotErrorIs(t, err, ErrSnapshotNotFound)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, got)

	_, err = ParseCompression("brotli")
	assert.Error(t, err)
}

func TestLZ4Incompressible(t *testing.T) {
	data := []byte{0x01}

	packed, err := compress(CompressionLZ4, data)
	require.NoError(t, err)

	unpacked, err := decompress(CompressionLZ4, packed)
	require.NoError(t, err)
	assert.Equal(t, data, unpacked)

	_, err = decompress(CompressionLZ4, []byte{1, 2})
	assert.Error(t, err)
}
