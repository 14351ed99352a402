package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/pathutil"
	"github.com/ebogdum/hotfs/metrics"
)

// File is a handle on a local path. Its identity, including whether it was
// resolved as a directory, is fixed at construction.
type File struct {
	adapter *LocalFSAdapter
	path    string // virtual, slash separated, no trailing slash except root
	dir     bool
	uri     *url.URL
}

func (a *LocalFSAdapter) newFile(p string, dirHint bool) *File {
	f := &File{adapter: a, path: p, dir: dirHint}
	if hp, err := a.hostPath(p); err == nil {
		if info, err := os.Stat(hp); err == nil {
			f.dir = info.IsDir()
		}
	}
	f.uri = &url.URL{
		Scheme: a.scheme,
		Host:   a.host,
		Path:   pathutil.NormalizeDir(a.prefix+p, f.dir),
	}
	return f
}

func (f *File) URI() *url.URL {
	u := *f.uri
	return &u
}

func (f *File) Scheme() string    { return f.adapter.scheme }
func (f *File) Name() string      { return pathutil.NameFromPath(f.path) }
func (f *File) BaseName() string  { return pathutil.BaseName(f.Name()) }
func (f *File) Extension() string { return pathutil.Extension(f.Name()) }

// Path returns the virtual path, with a trailing slash for directories
func (f *File) Path() string {
	return pathutil.NormalizeDir(f.path, f.dir)
}

// HostPath returns the location of the file on disk
func (f *File) HostPath() (string, error) {
	return f.adapter.hostPath(f.path)
}

func (f *File) String() string {
	return f.uri.String()
}

func (f *File) fail(op string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %v", backends.ErrNotFound, err)
	}
	return backends.NewError(op, f.uri.String(), err)
}

func (f *File) stat(op string) (os.FileInfo, error) {
	hp, err := f.HostPath()
	if err != nil {
		return nil, f.fail(op, err)
	}
	info, err := os.Stat(hp)
	if err != nil {
		return nil, f.fail(op, err)
	}
	return info, nil
}

// Open opens the file for reading
func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	metrics.RecordBackendOp(f.Scheme(), "open")
	if isDir, _ := f.IsDirectory(ctx); isDir {
		return nil, f.fail("open", backends.ErrIsDirectory)
	}

	hp, err := f.HostPath()
	if err != nil {
		return nil, f.fail("open", err)
	}
	file, err := os.Open(hp)
	if err != nil {
		return nil, f.fail("open", err)
	}
	return file, nil
}

// OpenWrite creates or truncates the file, creating missing parents
func (f *File) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	metrics.RecordBackendOp(f.Scheme(), "write")
	if isDir, _ := f.IsDirectory(ctx); isDir {
		return nil, f.fail("write", backends.ErrIsDirectory)
	}

	hp, err := f.HostPath()
	if err != nil {
		return nil, f.fail("write", err)
	}
	if err := os.MkdirAll(filepath.Dir(hp), 0755); err != nil {
		return nil, f.fail("write", err)
	}
	file, err := os.OpenFile(hp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, f.fail("write", err)
	}
	return file, nil
}

func (f *File) LastModified(ctx context.Context) (int64, error) {
	info, err := f.stat("stat")
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixMilli(), nil
}

func (f *File) SetLastModified(ctx context.Context, ms int64) error {
	metrics.RecordBackendOp(f.Scheme(), "chtimes")
	hp, err := f.HostPath()
	if err != nil {
		return f.fail("chtimes", err)
	}
	t := time.UnixMilli(ms)
	if err := os.Chtimes(hp, t, t); err != nil {
		return f.fail("chtimes", err)
	}
	return nil
}

func (f *File) Length(ctx context.Context) (int64, error) {
	info, err := f.stat("stat")
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// IsDirectory reports the on-disk type, falling back to how the handle was
// resolved when nothing exists at the path yet
func (f *File) IsDirectory(ctx context.Context) (bool, error) {
	info, err := f.stat("stat")
	if err != nil {
		if backends.IsNotFound(err) {
			return f.dir, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (f *File) IsFile(ctx context.Context) (bool, error) {
	isDir, err := f.IsDirectory(ctx)
	return !isDir, err
}

func (f *File) IsVisible(ctx context.Context) (bool, error) {
	if strings.HasPrefix(f.Name(), ".") {
		return false, nil
	}
	hp, err := f.HostPath()
	if err != nil {
		return false, f.fail("stat", err)
	}
	return !isHidden(hp), nil
}

func (f *File) Exists(ctx context.Context) (bool, error) {
	_, err := f.stat("stat")
	if err != nil {
		if backends.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *File) Parent(ctx context.Context) (backends.File, error) {
	return f.adapter.newFile(pathutil.ParentDir(f.path), true), nil
}

// ReadDir returns the direct children of the directory
func (f *File) ReadDir(ctx context.Context) ([]backends.File, error) {
	metrics.RecordBackendOp(f.Scheme(), "readdir")
	hp, err := f.HostPath()
	if err != nil {
		return nil, f.fail("readdir", err)
	}

	entries, err := os.ReadDir(hp)
	if err != nil {
		return nil, f.fail("readdir", err)
	}

	children := make([]backends.File, 0, len(entries))
	for _, entry := range entries {
		children = append(children, f.adapter.newFile(path.Join(f.path, entry.Name()), entry.IsDir()))
	}
	return children, nil
}

func (f *File) List(ctx context.Context, grab backends.GrabFilter, move backends.MoveFilter, cmp backends.Comparator) ([]backends.File, error) {
	return backends.List(ctx, f, grab, move, cmp)
}

// Delete removes a file or empty directory
func (f *File) Delete(ctx context.Context) error {
	metrics.RecordBackendOp(f.Scheme(), "delete")
	hp, err := f.HostPath()
	if err != nil {
		return f.fail("delete", err)
	}
	if err := os.Remove(hp); err != nil {
		return f.fail("delete", err)
	}
	return nil
}

func (f *File) Mkdir(ctx context.Context) error {
	metrics.RecordBackendOp(f.Scheme(), "mkdir")
	hp, err := f.HostPath()
	if err != nil {
		return f.fail("mkdir", err)
	}
	if err := os.Mkdir(hp, 0755); err != nil {
		return f.fail("mkdir", err)
	}
	return nil
}

func (f *File) Mkdirs(ctx context.Context) error {
	metrics.RecordBackendOp(f.Scheme(), "mkdir")
	hp, err := f.HostPath()
	if err != nil {
		return f.fail("mkdirs", err)
	}
	if err := os.MkdirAll(hp, 0755); err != nil {
		return f.fail("mkdirs", err)
	}
	return nil
}

// Rename moves the file to target, which must be served by the same adapter
func (f *File) Rename(ctx context.Context, target backends.File) error {
	if target == nil {
		return backends.ErrInvalidInput
	}
	dst, ok := target.(*File)
	if !backends.SameBackend(f, target) || !ok || dst.adapter != f.adapter {
		return fmt.Errorf("%w: %s -> %s", backends.ErrCrossBackend, f.uri, backends.Key(target))
	}

	metrics.RecordBackendOp(f.Scheme(), "rename")
	src, err := f.HostPath()
	if err != nil {
		return f.fail("rename", err)
	}
	dstPath, err := dst.HostPath()
	if err != nil {
		return f.fail("rename", err)
	}
	if err := os.Rename(src, dstPath); err != nil {
		return f.fail("rename", err)
	}
	return nil
}

// Resolve returns a handle for rel, interpreted below this handle's path
func (f *File) Resolve(ctx context.Context, rel string) (backends.File, error) {
	return f.adapter.resolvePath(f.path + "/" + rel)
}

// Close does nothing for local files
func (f *File) Close() error {
	return nil
}
