package model

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Point is the atomic stored unit of a collection.
type Point struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata"`
}

// NewPoint creates a point with a random UUIDv4 identifier.
func NewPoint(vector []float32, metadata map[string]string) Point {
	return Point{
		ID:       uuid.NewString(),
		Vector:   vector,
		Metadata: metadata,
	}
}

// NewPointWithID creates a point with a caller-supplied identifier.
func NewPointWithID(id string, vector []float32, metadata map[string]string) Point {
	return Point{
		ID:       id,
		Vector:   vector,
		Metadata: metadata,
	}
}

// Clone returns a deep copy of p.
func (p Point) Clone() Point {
	return Point{
		ID:       p.ID,
		Vector:   slices.Clone(p.Vector),
		Metadata: maps.Clone(p.Metadata),
	}
}
