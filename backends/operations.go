package backends

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// ReadAll returns the full content of f.
func ReadAll(ctx context.Context, f File) ([]byte, error) {
	r, err := f.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteAll replaces the content of f with data.
func WriteAll(ctx context.Context, f File, data []byte) error {
	return copyInto(ctx, f, bytes.NewReader(data))
}

// CopyTo copies the content of src into dst; the two may live on different
// backends.
func CopyTo(ctx context.Context, src, dst File) error {
	r, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer r.Close()
	return copyInto(ctx, dst, r)
}

func copyInto(ctx context.Context, dst File, r io.Reader) error {
	w, err := dst.OpenWrite(ctx)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", Key(dst), err)
	}
	return w.Close()
}

// RemoveAll deletes f and, for directories, everything below it, deepest
// entries first. The operation is not atomic: it stops at the first failed
// delete and returns that error.
func RemoveAll(ctx context.Context, f File) error {
	exists, err := f.Exists(ctx)
	if err != nil || !exists {
		return err
	}

	isDir, err := f.IsDirectory(ctx)
	if err != nil {
		return err
	}
	if isDir {
		contents, err := List(ctx, f, Everything, AllDirectories, SortBy(ByDepth, Descending))
		if err != nil {
			return err
		}
		defer closeAll(contents)

		for _, child := range contents {
			if err := child.Delete(ctx); err != nil {
				return err
			}
		}
	}

	return f.Delete(ctx)
}

// EnsureParent makes sure the directory that will hold f exists: a missing
// directory handle is created itself, anything else gets its parent
// created. It returns f to allow chaining.
func EnsureParent(ctx context.Context, f File) (File, error) {
	isDir, err := f.IsDirectory(ctx)
	if err != nil {
		return nil, err
	}
	exists, err := f.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if isDir && !exists {
		return f, f.Mkdirs(ctx)
	}

	parent, err := f.Parent(ctx)
	if err != nil {
		return nil, err
	}
	defer parent.Close()

	if err := parent.Mkdirs(ctx); err != nil && !errors.Is(err, ErrNotSupported) {
		return nil, err
	}
	return f, nil
}
