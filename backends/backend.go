// Package backends defines the resource contract shared by every hotfs
// storage backend, together with the listing algorithm, standard filters
// and comparators built purely on top of that contract.
package backends

import (
	"context"
	"io"
	"net/url"
)

// Backend resolves URIs of a single scheme into File handles.
type Backend interface {
	// Scheme returns the URI scheme served by this backend ("file", "s3", ...)
	Scheme() string

	// Resolve returns a handle for uri. The resource does not need to exist.
	Resolve(ctx context.Context, uri *url.URL) (File, error)

	// Close releases any resources held by the backend itself
	Close() error
}

// File is one node of a backend hierarchy.
//
// Identity is the URI: two handles are equal iff their URIs are equal, see
// Equal. Handles never change identity after construction. Callers must
// Close every handle they obtain so backends can release sessions.
type File interface {
	// URI returns a URI that resolves back to this handle
	URI() *url.URL

	// Scheme identifies the backend that produced the handle
	Scheme() string

	Name() string
	BaseName() string
	Extension() string
	Path() string

	// Open opens the file for reading. Directories fail with ErrIsDirectory
	Open(ctx context.Context) (io.ReadCloser, error)

	// OpenWrite opens the file for writing, truncating existing content.
	// Directories fail with ErrIsDirectory
	OpenWrite(ctx context.Context) (io.WriteCloser, error)

	// LastModified returns the modification time in epoch milliseconds
	LastModified(ctx context.Context) (int64, error)

	// SetLastModified sets the modification time from epoch milliseconds
	SetLastModified(ctx context.Context, ms int64) error

	// Length returns the size in bytes
	Length(ctx context.Context) (int64, error)

	IsDirectory(ctx context.Context) (bool, error)
	IsFile(ctx context.Context) (bool, error)
	IsVisible(ctx context.Context) (bool, error)
	Exists(ctx context.Context) (bool, error)

	// Parent returns the containing directory on the same backend
	Parent(ctx context.Context) (File, error)

	// ReadDir returns the direct children of a directory
	ReadDir(ctx context.Context) ([]File, error)

	// List returns the recursive listing described by List
	List(ctx context.Context, grab GrabFilter, move MoveFilter, cmp Comparator) ([]File, error)

	Delete(ctx context.Context) error
	Mkdir(ctx context.Context) error
	Mkdirs(ctx context.Context) error

	// Rename moves this resource to target. Targets on another backend
	// fail with ErrCrossBackend
	Rename(ctx context.Context, target File) error

	// Resolve returns a handle for a path relative to this one
	Resolve(ctx context.Context, rel string) (File, error)

	// Close disposes the handle
	Close() error
}

// Equal reports whether a and b identify the same resource.
func Equal(a, b File) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Key(a) == Key(b)
}

// Key returns the identity key of f.
func Key(f File) string {
	u := f.URI()
	if u == nil {
		return ""
	}
	return u.String()
}

// SameBackend reports whether target was produced by the backend serving f.
func SameBackend(f, target File) bool {
	return f.Scheme() == target.Scheme()
}
