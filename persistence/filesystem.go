package persistence

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	ifs "github.com/hupe1980/pikodb/internal/fs"
	"github.com/hupe1980/pikodb/resource"
)

// Compile-time check to ensure FileSystemAdapter satisfies the adapter interface.
var _ Adapter = (*FileSystemAdapter)(nil)

// FileSystemOptions configures a FileSystemAdapter.
type FileSystemOptions struct {
	// Format selects codec and compression for new snapshots.
	Format Format

	// FS is the filesystem implementation. Defaults to the local filesystem.
	FS ifs.FileSystem

	// Resources throttles snapshot writes. Nil means unlimited.
	Resources *resource.Controller
}

// FileSystemAdapter stores the snapshot in a single file.
//
// Save writes to a temporary file in the same directory, syncs it and renames
// it over the target, so a crash never leaves a torn snapshot behind.
type FileSystemAdapter struct {
	path string
	opts FileSystemOptions
}

// NewFileSystemAdapter creates an adapter for the snapshot file at path.
func NewFileSystemAdapter(path string, optFns ...func(o *FileSystemOptions)) *FileSystemAdapter {
	opts := FileSystemOptions{
		Format: DefaultFormat,
		FS:     ifs.Default,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.FS == nil {
		opts.FS = ifs.Default
	}

	return &FileSystemAdapter{path: path, opts: opts}
}

// Path returns the snapshot file path.
func (a *FileSystemAdapter) Path() string { return a.path }

// Save atomically replaces the snapshot file with state.
func (a *FileSystemAdapter) Save(ctx context.Context, state *State) error {
	data, err := a.opts.Format.Encode(state)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(a.path)
	if err := a.opts.FS.MkdirAll(dir, 0o755); err != nil {
		return &FileOperationError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := a.opts.FS.CreateTemp(dir, filepath.Base(a.path)+".tmp-*")
	if err != nil {
		return &FileOperationError{Op: "create", Path: dir, Err: err}
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = a.opts.FS.Remove(tmpName)
		}
	}()

	if _, err := resource.NewRateLimitedWriter(ctx, tmp, a.opts.Resources).Write(data); err != nil {
		return &FileOperationError{Op: "write", Path: tmpName, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &FileOperationError{Op: "sync", Path: tmpName, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &FileOperationError{Op: "close", Path: tmpName, Err: err}
	}
	if err := a.opts.FS.Rename(tmpName, a.path); err != nil {
		_ = a.opts.FS.Remove(tmpName)
		committed = true
		return &FileOperationError{Op: "rename", Path: a.path, Err: err}
	}

	committed = true
	return nil
}

// Load reads and decodes the snapshot file.
func (a *FileSystemAdapter) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := a.opts.FS.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileOperationError{Op: "read", Path: a.path, Err: errors.Join(ErrSnapshotNotFound, err)}
		}
		return nil, &FileOperationError{Op: "read", Path: a.path, Err: err}
	}

	return Decode(data)
}
