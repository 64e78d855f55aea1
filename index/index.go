package index

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/pikodb/distance"
	"github.com/hupe1980/pikodb/model"
)

// ErrInvalidVector is returned for vectors with NaN or infinite components.
var ErrInvalidVector = errors.New("vector has non-finite components")

// ErrDimensionMismatch is a named error type for dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// SearchResult represents a search result.
type SearchResult struct {
	// ID is the slot of the matching vector.
	ID uint32

	// Distance is the cosine distance between the query and the vector.
	Distance float32
}

// Index is an approximate nearest-neighbor index over slots.
type Index interface {
	// Insert stores vector under slot. A repeated slot replaces the
	// previous vector for search purposes.
	Insert(vector []float32, slot uint32) error

	// Search returns up to k slots ordered by ascending distance.
	// ef is the query-time candidate list size.
	Search(query []float32, k, ef int) ([]SearchResult, error)

	// Len returns the number of distinct slots.
	Len() int
}

// Factory builds an empty index for vectors of length dim.
type Factory func(dim int, cfg model.IndexConfig) (Index, error)

// CheckDimension validates that a vector has the expected length.
func CheckDimension(expected int, v []float32) error {
	if len(v) != expected {
		return &ErrDimensionMismatch{Expected: expected, Actual: len(v)}
	}
	return nil
}

// Normalize returns an L2-normalized copy of v for cosine indexing.
// A zero vector is kept as zeros, which places it at distance 1 from
// every other vector.
func Normalize(v []float32) ([]float32, error) {
	for _, x := range v {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, ErrInvalidVector
		}
	}
	if n, ok := distance.NormalizeL2Copy(v); ok {
		return n, nil
	}
	return make([]float32, len(v)), nil
}
