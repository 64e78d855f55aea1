package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned when a store has no adapter to persist to.
	ErrNotConfigured = errors.New("persistence not configured")

	// ErrSnapshotNotFound is wrapped by adapters when no snapshot has been saved yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SerializationError indicates that state could not be encoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization failed: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// DeserializationError indicates a snapshot that could not be decoded.
type DeserializationError struct {
	Err error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("deserialization failed: %v", e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// FileOperationError indicates a storage operation failure.
type FileOperationError struct {
	Op   string // read, write, sync, rename, ...
	Path string
	Err  error
}

func (e *FileOperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileOperationError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means that no snapshot exists yet.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSnapshotNotFound)
}
