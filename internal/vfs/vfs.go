// Package vfs is the file system abstraction used by file tasks.
package vfs

import (
	"context"
	"io/fs"
)

// CopyOpts are the options of a single file copy.
type CopyOpts struct {
	// Force overwrites an existing destination.
	Force bool
	// Follow copies the target of a symlink instead of the link itself.
	Follow bool
	// OnProgress receives the number of copied bytes as the copy advances.
	OnProgress func(n int64)
}

// RemoveOpts are the options of a removal.
type RemoveOpts struct {
	// Permanently deletes the entry, otherwise it's moved to the trash.
	Permanently bool
}

// LinkOpts are the options of symlink and hardlink creation.
type LinkOpts struct {
	// Force replaces an existing destination.
	Force bool
	// Relative makes the symlink target relative to the link directory.
	Relative bool
}

// Provider is a file system backend. Paths are absolute and every method
// works on a single entry, traversal is done by the callers.
type Provider interface {
	// Stat returns the info of path, if follow is false symlinks are not dereferenced.
	Stat(ctx context.Context, path string, follow bool) (fs.FileInfo, error)
	// ReadDir returns the entries of a directory sorted by name.
	ReadDir(ctx context.Context, path string) ([]fs.FileInfo, error)
	// Mkdir creates a directory and any missing parent.
	Mkdir(ctx context.Context, path string, perm fs.FileMode) error
	// Copy copies a regular file (or a symlink when not following) and returns the copied bytes.
	Copy(ctx context.Context, src, dst string, opts CopyOpts) (int64, error)
	// Rename moves an entry, fails with model.ErrNotSupported across devices.
	Rename(ctx context.Context, src, dst string) error
	// Remove removes a file or an empty directory, or moves a whole tree to the trash.
	Remove(ctx context.Context, path string, opts RemoveOpts) error
	// Link creates dst as a symlink to src.
	Link(ctx context.Context, src, dst string, opts LinkOpts) error
	// Hardlink creates dst as a hard link to src.
	Hardlink(ctx context.Context, src, dst string, opts LinkOpts) error
	// ReadLink returns the target of a symlink.
	ReadLink(ctx context.Context, path string) (string, error)
}
