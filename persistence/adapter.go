package persistence

import "context"

// Adapter saves and loads whole-store snapshots.
//
// Save replaces the previous snapshot. Load returns an error wrapping
// ErrSnapshotNotFound when nothing has been saved yet.
type Adapter interface {
	Save(ctx context.Context, state *State) error
	Load(ctx context.Context) (*State, error)
}
