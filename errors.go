package pikodb

import (
	"errors"
	"fmt"

	"github.com/hupe1980/pikodb/index"
	"github.com/hupe1980/pikodb/model"
	"github.com/hupe1980/pikodb/persistence"
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an embedding type without a positive dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// ErrCollectionNotFound indicates a reference to an unregistered collection.
type ErrCollectionNotFound struct {
	Name string
}

func (e *ErrCollectionNotFound) Error() string {
	return fmt.Sprintf("collection %q not found", e.Name)
}

// ErrConfigMismatch is returned in strict mode when a collection is created
// again with a configuration that differs from the stored one.
type ErrConfigMismatch struct {
	Name      string
	Existing  IndexConfig
	Requested IndexConfig
}

func (e *ErrConfigMismatch) Error() string {
	return fmt.Sprintf("collection %q exists with config %s/%s, requested %s/%s",
		e.Name,
		e.Existing.BuildQuality, e.Existing.Embedding,
		e.Requested.BuildQuality, e.Requested.Embedding,
	)
}

// PersistenceError wraps failures of the snapshot layer. The underlying
// *persistence.SerializationError, *persistence.DeserializationError,
// *persistence.FileOperationError or persistence.ErrNotConfigured is
// reachable through errors.As and errors.Is.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Dimension and argument normalization.
	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var id *model.InvalidDimensionError
	if errors.As(err, &id) {
		return &ErrInvalidDimension{Dimension: id.Dimension, cause: err}
	}

	return err
}

func persistenceError(err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Err: err}
}

// IsNotConfigured reports whether err stems from a mutation on a store
// that has no adapter to persist to.
func IsNotConfigured(err error) bool {
	return errors.Is(err, persistence.ErrNotConfigured)
}
