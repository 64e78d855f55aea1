package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/pikodb/internal/conv"
	"github.com/hupe1980/pikodb/model"
)

var errTruncated = errors.New("unexpected end of payload")

// binaryWriter appends little-endian primitives to a buffer.
type binaryWriter struct {
	buf []byte
}

func (w *binaryWriter) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *binaryWriter) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *binaryWriter) str(s string) {
	w.u32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *binaryWriter) float32s(vec []float32) {
	w.u32(uint32(len(vec)))
	for _, f := range vec {
		w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(f))
	}
}

// binaryReader consumes little-endian primitives from a buffer.
type binaryReader struct {
	buf []byte
	off int
}

func (r *binaryReader) take(n int) ([]byte, error) {
	if n < 0 || len(r.buf)-r.off < n {
		return nil, errTruncated
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *binaryReader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *binaryReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// count reads a length prefix and rejects values that cannot fit in the
// remaining payload given a minimum element size.
func (r *binaryReader) count(minElem int) (int, error) {
	n, err := r.u32()
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minElem) > uint64(len(r.buf)-r.off) {
		return 0, errTruncated
	}
	return conv.Uint32ToInt(n)
}

func (r *binaryReader) str() (string, error) {
	n, err := r.count(1)
	if err != nil {
		return "", err
	}
	b, err := r.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *binaryReader) float32s() ([]float32, error) {
	n, err := r.count(4)
	if err != nil {
		return nil, err
	}
	b, err := r.take(4 * n)
	if err != nil {
		return nil, err
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return vec, nil
}

// MarshalBinary encodes the state in the compact binary payload layout.
//
// Collections and metadata keys are written in sorted order so equal states
// encode to equal bytes. The id map is not written; it is implied by the point
// order and rebuilt by UnmarshalBinary.
func (s State) MarshalBinary() ([]byte, error) {
	w := &binaryWriter{}

	names := make([]string, 0, len(s.Collections))
	for name := range s.Collections {
		names = append(names, name)
	}
	slices.Sort(names)

	w.u32(uint32(len(names)))
	for _, name := range names {
		c := s.Collections[name]
		for i, p := range c.Points {
			if slot, ok := c.IDToSlot[p.ID]; !ok || slot != i {
				return nil, fmt.Errorf("collection %q: point %q at slot %d is not mapped to its slot", name, p.ID, i)
			}
		}
		if len(c.IDToSlot) != len(c.Points) {
			return nil, fmt.Errorf("collection %q: id map has %d entries for %d points", name, len(c.IDToSlot), len(c.Points))
		}

		w.str(name)
		w.u8(uint8(c.Config.BuildQuality))
		w.u8(uint8(c.Config.Embedding.Model))
		w.u32(uint32(c.Config.Embedding.Dim))

		w.u32(uint32(len(c.Points)))
		for _, p := range c.Points {
			w.str(p.ID)
			w.float32s(p.Vector)

			if p.Metadata == nil {
				w.u8(0)
				continue
			}
			w.u8(1)

			keys := make([]string, 0, len(p.Metadata))
			for k := range p.Metadata {
				keys = append(keys, k)
			}
			slices.Sort(keys)

			w.u32(uint32(len(keys)))
			for _, k := range keys {
				w.str(k)
				w.str(p.Metadata[k])
			}
		}
	}

	return w.buf, nil
}

// UnmarshalBinary decodes a payload produced by MarshalBinary.
func (s *State) UnmarshalBinary(data []byte) error {
	r := &binaryReader{buf: data}

	n, err := r.count(4)
	if err != nil {
		return err
	}

	collections := make(map[string]CollectionState, n)
	for range n {
		name, err := r.str()
		if err != nil {
			return err
		}
		if _, dup := collections[name]; dup {
			return fmt.Errorf("duplicate collection %q", name)
		}

		c, err := readCollection(r)
		if err != nil {
			return fmt.Errorf("collection %q: %w", name, err)
		}
		collections[name] = c
	}

	if r.off != len(data) {
		return fmt.Errorf("%d trailing bytes after payload", len(data)-r.off)
	}

	s.Collections = collections
	return nil
}

func readCollection(r *binaryReader) (CollectionState, error) {
	var c CollectionState

	quality, err := r.u8()
	if err != nil {
		return c, err
	}
	embModel, err := r.u8()
	if err != nil {
		return c, err
	}
	dim, err := r.u32()
	if err != nil {
		return c, err
	}
	c.Config = model.IndexConfig{
		BuildQuality: model.BuildQuality(quality),
		Embedding:    model.EmbeddingType{Model: model.EmbeddingModel(embModel), Dim: int(int32(dim))},
	}

	count, err := r.count(9)
	if err != nil {
		return c, err
	}

	c.Points = make([]model.Point, count)
	c.IDToSlot = make(map[string]int, count)
	for i := range c.Points {
		p := &c.Points[i]

		if p.ID, err = r.str(); err != nil {
			return c, err
		}
		if _, dup := c.IDToSlot[p.ID]; dup {
			return c, fmt.Errorf("duplicate point id %q", p.ID)
		}
		c.IDToSlot[p.ID] = i

		if p.Vector, err = r.float32s(); err != nil {
			return c, err
		}

		present, err := r.u8()
		if err != nil {
			return c, err
		}
		switch present {
		case 0:
			continue
		case 1:
		default:
			return c, fmt.Errorf("point %q: invalid metadata marker %d", p.ID, present)
		}

		pairs, err := r.count(8)
		if err != nil {
			return c, err
		}
		p.Metadata = make(map[string]string, pairs)
		for range pairs {
			k, err := r.str()
			if err != nil {
				return c, err
			}
			v, err := r.str()
			if err != nil {
				return c, err
			}
			p.Metadata[k] = v
		}
	}

	return c, nil
}
