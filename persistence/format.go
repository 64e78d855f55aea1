package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/pikodb/codec"
)

const (
	// Magic identifies pikodb snapshots.
	Magic = "PIKO"
	// Version is the current snapshot format version.
	Version uint16 = 1

	// fixed header bytes: magic, version, compression, codec name length
	fixedHeaderSize = len(Magic) + 2 + 1 + 1
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrUnknownCodec   = errors.New("unknown codec")
)

// Format describes how snapshots are encoded.
type Format struct {
	Codec       codec.Codec
	Compression Compression
}

// DefaultFormat is the binary codec without compression.
var DefaultFormat = Format{Codec: codec.Default, Compression: CompressionNone}

func (f Format) codec() codec.Codec {
	if f.Codec == nil {
		return codec.Default
	}
	return f.Codec
}

// Encode serializes state into a framed snapshot.
// Failures are returned as *SerializationError.
func (f Format) Encode(state *State) ([]byte, error) {
	if state == nil {
		state = NewState()
	}

	c := f.codec()
	name := c.Name()
	if len(name) > 255 {
		return nil, &SerializationError{Err: fmt.Errorf("codec name %q too long", name)}
	}

	encoded, err := c.Marshal(state)
	if err != nil {
		return nil, &SerializationError{Err: err}
	}

	payload, err := compress(f.Compression, encoded)
	if err != nil {
		return nil, &SerializationError{Err: err}
	}

	out := make([]byte, 0, fixedHeaderSize+len(name)+12+len(payload))
	out = append(out, Magic...)
	out = binary.LittleEndian.AppendUint16(out, Version)
	out = append(out, uint8(f.Compression), uint8(len(name)))
	out = append(out, name...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(payload)))
	out = binary.LittleEndian.AppendUint32(out, CalculateChecksum(payload))
	out = append(out, payload...)

	return out, nil
}

// Header is the decoded framing of a snapshot.
type Header struct {
	Version     uint16
	Compression Compression
	Codec       string
	Length      uint64
	Checksum    uint32
}

// Decode parses a framed snapshot, selecting codec and compression from
// its header. Failures are returned as *DeserializationError.
func Decode(data []byte) (*State, error) {
	hdr, payload, err := ReadHeader(data)
	if err != nil {
		return nil, &DeserializationError{Err: err}
	}

	if err := VerifyChecksum(payload, hdr.Checksum); err != nil {
		return nil, &DeserializationError{Err: err}
	}

	c, ok := codec.ByName(hdr.Codec)
	if !ok {
		return nil, &DeserializationError{Err: fmt.Errorf("%w: %q", ErrUnknownCodec, hdr.Codec)}
	}

	encoded, err := decompress(hdr.Compression, payload)
	if err != nil {
		return nil, &DeserializationError{Err: err}
	}

	state := NewState()
	if err := c.Unmarshal(encoded, state); err != nil {
		return nil, &DeserializationError{Err: err}
	}
	if state.Collections == nil {
		state.Collections = make(map[string]CollectionState)
	}

	return state, nil
}

// ReadHeader validates the framing of a snapshot and returns its header and payload.
func ReadHeader(data []byte) (Header, []byte, error) {
	var hdr Header

	if len(data) < fixedHeaderSize {
		return hdr, nil, errTruncated
	}
	if string(data[:len(Magic)]) != Magic {
		return hdr, nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, data[:len(Magic)])
	}

	off := len(Magic)
	hdr.Version = binary.LittleEndian.Uint16(data[off:])
	if hdr.Version != Version {
		return hdr, nil, fmt.Errorf("%w: %d", ErrInvalidVersion, hdr.Version)
	}
	off += 2

	hdr.Compression = Compression(data[off])
	if hdr.Compression > CompressionZSTD {
		return hdr, nil, fmt.Errorf("unknown compression %d", data[off])
	}
	nameLen := int(data[off+1])
	off += 2

	if len(data) < off+nameLen+12 {
		return hdr, nil, errTruncated
	}
	hdr.Codec = string(data[off : off+nameLen])
	off += nameLen

	hdr.Length = binary.LittleEndian.Uint64(data[off:])
	hdr.Checksum = binary.LittleEndian.Uint32(data[off+8:])
	off += 12

	if uint64(len(data)-off) != hdr.Length {
		return hdr, nil, fmt.Errorf("payload length %d does not match header length %d", len(data)-off, hdr.Length)
	}

	return hdr, data[off:], nil
}
