package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/pathutil"
	"github.com/ebogdum/hotfs/metrics"
)

// File is a handle on a remote path. Each handle holds one reference to
// its session until Close.
type File struct {
	adapter *Adapter
	sess    *session
	path    string
	dir     bool
	uri     *url.URL
	once    sync.Once
}

// newFile builds a handle owning a reference the caller already holds
func (a *Adapter) newFile(s *session, p string, dirHint bool) *File {
	f := &File{adapter: a, sess: s, path: p, dir: dirHint}
	if info, err := s.client.Stat(p); err == nil {
		f.dir = info.IsDir()
	}
	f.uri = &url.URL{
		Scheme: Scheme,
		User:   url.User(s.user),
		Host:   s.host,
		Path:   pathutil.NormalizeDir(p, f.dir),
	}
	return f
}

// derive returns a handle on the same session for p
func (f *File) derive(p string, dirHint bool) *File {
	f.adapter.retain(f.sess)
	return f.adapter.newFile(f.sess, p, dirHint)
}

func (f *File) URI() *url.URL {
	u := *f.uri
	return &u
}

func (f *File) Scheme() string    { return Scheme }
func (f *File) Name() string      { return pathutil.NameFromPath(f.path) }
func (f *File) BaseName() string  { return pathutil.BaseName(f.Name()) }
func (f *File) Extension() string { return pathutil.Extension(f.Name()) }
func (f *File) Path() string      { return f.uri.Path }
func (f *File) String() string    { return f.uri.String() }

func (f *File) fail(op string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %v", backends.ErrNotFound, err)
	}
	return backends.NewError(op, f.uri.String(), err)
}

func (f *File) stat(op string) (os.FileInfo, error) {
	info, err := f.sess.client.Stat(f.path)
	if err != nil {
		return nil, f.fail(op, err)
	}
	return info, nil
}

func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	metrics.RecordBackendOp(Scheme, "open")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isDir, _ := f.IsDirectory(ctx); isDir {
		return nil, f.fail("open", backends.ErrIsDirectory)
	}
	r, err := f.sess.client.Open(f.path)
	if err != nil {
		return nil, f.fail("open", err)
	}
	return r, nil
}

func (f *File) OpenWrite(ctx context.Context) (io.WriteCloser, error) {
	metrics.RecordBackendOp(Scheme, "write")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isDir, _ := f.IsDirectory(ctx); isDir {
		return nil, f.fail("write", backends.ErrIsDirectory)
	}
	if err := f.sess.client.MkdirAll(path.Dir(f.path)); err != nil {
		return nil, f.fail("write", err)
	}
	w, err := f.sess.client.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return nil, f.fail("write", err)
	}
	return w, nil
}

func (f *File) LastModified(ctx context.Context) (int64, error) {
	info, err := f.stat("stat")
	if err != nil {
		return 0, err
	}
	return info.ModTime().UnixMilli(), nil
}

func (f *File) SetLastModified(ctx context.Context, ms int64) error {
	t := time.UnixMilli(ms)
	if err := f.sess.client.Chtimes(f.path, t, t); err != nil {
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

func (f *File) IsDirectory(ctx context.Context) (bool, error) {
	info, err := f.sess.client.Stat(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f.dir, nil
		}
		return false, f.fail("stat", err)
	}
	return info.IsDir(), nil
}

func (f *File) IsFile(ctx context.Context) (bool, error) {
	isDir, err := f.IsDirectory(ctx)
	return !isDir, err
}

func (f *File) IsVisible(ctx context.Context) (bool, error) {
	return !strings.HasPrefix(f.Name(), "."), nil
}

func (f *File) Exists(ctx context.Context) (bool, error) {
	if f.path == "/" {
		return true, nil
	}
	if _, err := f.sess.client.Stat(f.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, f.fail("stat", err)
	}
	return true, nil
}

func (f *File) Parent(ctx context.Context) (backends.File, error) {
	return f.derive(pathutil.ParentDir(f.path), true), nil
}

func (f *File) ReadDir(ctx context.Context) ([]backends.File, error) {
	metrics.RecordBackendOp(Scheme, "readdir")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := f.sess.client.ReadDir(f.path)
	if err != nil {
		return nil, f.fail("readdir", err)
	}

	children := make([]backends.File, 0, len(entries))
	for _, entry := range entries {
		if entry.Name() == "." || entry.Name() == ".." {
			continue
		}
		children = append(children, f.derive(path.Join(f.path, entry.Name()), entry.IsDir()))
	}
	return children, nil
}

func (f *File) List(ctx context.Context, grab backends.GrabFilter, move backends.MoveFilter, cmp backends.Comparator) ([]backends.File, error) {
	return backends.List(ctx, f, grab, move, cmp)
}

func (f *File) Delete(ctx context.Context) error {
	metrics.RecordBackendOp(Scheme, "delete")
	info, err := f.stat("delete")
	if err != nil {
		return err
	}
	if info.IsDir() {
		err = f.sess.client.RemoveDirectory(f.path)
	} else {
		err = f.sess.client.Remove(f.path)
	}
	if err != nil {
		return f.fail("delete", err)
	}
	return nil
}

func (f *File) Mkdir(ctx context.Context) error {
	metrics.RecordBackendOp(Scheme, "mkdir")
	if err := f.sess.client.Mkdir(f.path); err != nil {
		return f.fail("mkdir", err)
	}
	return nil
}

func (f *File) Mkdirs(ctx context.Context) error {
	metrics.RecordBackendOp(Scheme, "mkdir")
	if err := f.sess.client.MkdirAll(f.path); err != nil {
		return f.fail("mkdirs", err)
	}
	return nil
}

// Rename moves the file on the server. Both handles must share a session.
func (f *File) Rename(ctx context.Context, target backends.File) error {
	if target == nil {
		return backends.ErrInvalidInput
	}
	dst, ok := target.(*File)
	if !backends.SameBackend(f, target) || !ok || dst.sess != f.sess {
		return fmt.Errorf("%w: %s -> %s", backends.ErrCrossBackend, f.uri, backends.Key(target))
	}

	metrics.RecordBackendOp(Scheme, "rename")
	if err := f.sess.client.Rename(f.path, dst.path); err != nil {
		return f.fail("rename", err)
	}
	return nil
}

func (f *File) Resolve(ctx context.Context, rel string) (backends.File, error) {
	f.adapter.retain(f.sess)
	child, err := f.adapter.resolvePath(f.sess, f.path+"/"+rel)
	if err != nil {
		f.adapter.release(f.sess)
		return nil, err
	}
	return child, nil
}

// Close releases the handle's session reference; further calls are no-ops
func (f *File) Close() error {
	f.once.Do(func() { f.adapter.release(f.sess) })
	return nil
}
