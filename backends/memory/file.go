package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/pathutil"
	"github.com/ebogdum/hotfs/metrics"
)

// File is a handle on a node of an Adapter
type File struct {
	adapter *Adapter
	path    string
	dir     bool
	uri     *url.URL
}

func (a *Adapter) newFile(p string, dirHint bool) *File {
	f := &File{adapter: a, path: p, dir: dirHint}
	if n, ok := a.lookup(p); ok {
		f.dir = n.dir
	}
	f.uri = &url.URL{Scheme: a.scheme, Path: pathutil.NormalizeDir(p, f.dir)}
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
func (f *File) Path() string      { return pathutil.NormalizeDir(f.path, f.dir) }
func (f *File) String() string    { return f.uri.String() }

func (f *File) fail(op string, err error) error {
	return backends.NewError(op, f.uri.String(), err)
}

func (f *File) node(op string) (*node, error) {
	n, ok := f.adapter.lookup(f.path)
	if !ok {
		return nil, f.fail(op, backends.ErrNotFound)
	}
	return n, nil
}

func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	metrics.RecordBackendOp(f.Scheme(), "open")
	n, err := f.node("open")
	if err != nil {
		return nil, err
	}
	if n.dir {
		return nil, f.fail("open", backends.ErrIsDirectory)
	}
	return io.NopCloser(bytes.NewReader(n.content)), nil
}

// OpenWrite buffers writes; content becomes visible when the writer closes
func (f *File) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	metrics.RecordBackendOp(f.Scheme(), "write")
	if isDir, _ := f.IsDirectory(ctx); isDir {
		return nil, f.fail("write", backends.ErrIsDirectory)
	}
	return &writer{file: f}, nil
}

func (f *File) LastModified(ctx context.Context) (int64, error) {
	n, err := f.node("stat")
	if err != nil {
		return 0, err
	}
	return n.modTime.UnixMilli(), nil
}

func (f *File) SetLastModified(ctx context.Context, ms int64) error {
	a := f.adapter
	a.mu.Lock()
	defer a.mu.Unlock()
	n, ok := a.nodes[f.path]
	if !ok {
		return f.fail("chtimes", backends.ErrNotFound)
	}
	n.modTime = time.UnixMilli(ms)
	return nil
}

func (f *File) Length(ctx context.Context) (int64, error) {
	n, err := f.node("stat")
	if err != nil {
		return 0, err
	}
	return int64(len(n.content)), nil
}

func (f *File) IsDirectory(ctx context.Context) (bool, error) {
	if n, ok := f.adapter.lookup(f.path); ok {
		return n.dir, nil
	}
	return f.dir, nil
}

func (f *File) IsFile(ctx context.Context) (bool, error) {
	isDir, err := f.IsDirectory(ctx)
	return !isDir, err
}

func (f *File) IsVisible(ctx context.Context) (bool, error) {
	return !strings.HasPrefix(f.Name(), "."), nil
}

func (f *File) Exists(ctx context.Context) (bool, error) {
	_, ok := f.adapter.lookup(f.path)
	return ok, nil
}

func (f *File) Parent(ctx context.Context) (backends.File, error) {
	return f.adapter.newFile(pathutil.ParentDir(f.path), true), nil
}

func (f *File) ReadDir(ctx context.Context) ([]backends.File, error) {
	metrics.RecordBackendOp(f.Scheme(), "readdir")
	n, err := f.node("readdir")
	if err != nil {
		return nil, err
	}
	if !n.dir {
		return nil, f.fail("readdir", fmt.Errorf("not a directory"))
	}

	names := f.adapter.children(f.path)
	children := make([]backends.File, 0, len(names))
	for _, name := range names {
		children = append(children, f.adapter.newFile(path.Join(f.path, name), false))
	}
	return children, nil
}

func (f *File) List(ctx context.Context, grab backends.GrabFilter, move backends.MoveFilter, cmp backends.Comparator) ([]backends.File, error) {
	return backends.List(ctx, f, grab, move, cmp)
}

func (f *File) Delete(ctx context.Context) error {
	metrics.RecordBackendOp(f.Scheme(), "delete")
	if f.path == "/" {
		return f.fail("delete", backends.ErrNotSupported)
	}
	if len(f.adapter.children(f.path)) > 0 {
		return f.fail("delete", errNotEmpty)
	}

	a := f.adapter
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.nodes[f.path]; !ok {
		return f.fail("delete", backends.ErrNotFound)
	}
	delete(a.nodes, f.path)
	return nil
}

func (f *File) Mkdir(ctx context.Context) error {
	metrics.RecordBackendOp(f.Scheme(), "mkdir")
	a := f.adapter
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.nodes[f.path]; ok {
		return f.fail("mkdir", fmt.Errorf("already exists"))
	}
	if parent, ok := a.nodes[path.Dir(f.path)]; !ok || !parent.dir {
		return f.fail("mkdir", fmt.Errorf("%w: parent directory", backends.ErrNotFound))
	}
	a.nodes[f.path] = &node{dir: true, modTime: a.now()}
	return nil
}

func (f *File) Mkdirs(ctx context.Context) error {
	metrics.RecordBackendOp(f.Scheme(), "mkdir")
	a := f.adapter
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.nodes[f.path]; ok {
		if !n.dir {
			return f.fail("mkdirs", fmt.Errorf("exists as a file"))
		}
		return nil
	}
	a.ensureParents(f.path)
	a.nodes[f.path] = &node{dir: true, modTime: a.now()}
	return nil
}

// Rename moves the node and everything below it to target
func (f *File) Rename(ctx context.Context, target backends.File) error {
	if target == nil {
		return backends.ErrInvalidInput
	}
	dst, ok := target.(*File)
	if !backends.SameBackend(f, target) || !ok || dst.adapter != f.adapter {
		return fmt.Errorf("%w: %s -> %s", backends.ErrCrossBackend, f.uri, backends.Key(target))
	}

	metrics.RecordBackendOp(f.Scheme(), "rename")
	a := f.adapter
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.nodes[f.path]; !ok {
		return f.fail("rename", backends.ErrNotFound)
	}
	if dst.path == f.path || strings.HasPrefix(dst.path, f.path+"/") {
		return f.fail("rename", backends.ErrInvalidInput)
	}

	moved := make(map[string]*node)
	for p, n := range a.nodes {
		if p == f.path || strings.HasPrefix(p, f.path+"/") {
			moved[dst.path+strings.TrimPrefix(p, f.path)] = n
			delete(a.nodes, p)
		}
	}
	a.ensureParents(dst.path)
	for p, n := range moved {
		a.nodes[p] = n
	}
	return nil
}

func (f *File) Resolve(ctx context.Context, rel string) (backends.File, error) {
	return f.adapter.resolvePath(f.path + "/" + rel)
}

func (f *File) Close() error {
	return nil
}
