package persistence

import (
	"context"
	"errors"

	"github.com/hupe1980/pikodb/blobstore"
	"github.com/hupe1980/pikodb/resource"
)

// Compile-time check to ensure BlobAdapter satisfies the adapter interface.
var _ Adapter = (*BlobAdapter)(nil)

// DefaultBlobName is the blob a BlobAdapter writes when no name is configured.
const DefaultBlobName = "snapshot.bin"

// BlobOptions configures a BlobAdapter.
type BlobOptions struct {
	// Name is the blob the snapshot is stored under.
	Name string

	// Format selects codec and compression for new snapshots.
	Format Format

	// Resources throttles uploads. Nil means unlimited.
	Resources *resource.Controller
}

// BlobAdapter stores the snapshot as a single blob.
type BlobAdapter struct {
	store blobstore.Store
	opts  BlobOptions
}

// NewBlobAdapter creates an adapter on top of store.
func NewBlobAdapter(store blobstore.Store, optFns ...func(o *BlobOptions)) *BlobAdapter {
	opts := BlobOptions{
		Name:   DefaultBlobName,
		Format: DefaultFormat,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Name == "" {
		opts.Name = DefaultBlobName
	}

	return &BlobAdapter{store: store, opts: opts}
}

// Name returns the blob name.
func (a *BlobAdapter) Name() string { return a.opts.Name }

// Save encodes state and replaces the blob.
func (a *BlobAdapter) Save(ctx context.Context, state *State) error {
	data, err := a.opts.Format.Encode(state)
	if err != nil {
		return err
	}

	if err := a.opts.Resources.AcquireIO(ctx, len(data)); err != nil {
		return err
	}

	if err := a.store.Put(ctx, a.opts.Name, data); err != nil {
		return &FileOperationError{Op: "put", Path: a.opts.Name, Err: err}
	}
	return nil
}

// Load fetches and decodes the blob.
func (a *BlobAdapter) Load(ctx context.Context) (*State, error) {
	data, err := a.store.Get(ctx, a.opts.Name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, &FileOperationError{Op: "get", Path: a.opts.Name, Err: errors.Join(ErrSnapshotNotFound, err)}
		}
		return nil, &FileOperationError{Op: "get", Path: a.opts.Name, Err: err}
	}

	return Decode(data)
}
