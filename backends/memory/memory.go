// Package memory implements an in-memory backend for the "mem" scheme.
// It is useful for tests, demos and as scratch space.
package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/pathutil"
)

// Scheme is the default URI scheme served by this package.
const Scheme = "mem"

var errNotEmpty = errors.New("directory not empty")

// node is a file or directory stored in memory
type node struct {
	dir     bool
	content []byte
	modTime time.Time
}

// Adapter provides an in-memory tree addressed by mem:///path URIs
type Adapter struct {
	mu     sync.RWMutex
	nodes  map[string]*node
	scheme string
	now    func() time.Time
}

// New creates an empty in-memory backend. An optional scheme overrides "mem".
func New(scheme ...string) *Adapter {
	s := Scheme
	if len(scheme) > 0 && scheme[0] != "" {
		s = scheme[0]
	}
	return &Adapter{
		nodes:  map[string]*node{"/": {dir: true, modTime: time.Now()}},
		scheme: s,
		now:    time.Now,
	}
}

func (a *Adapter) Scheme() string {
	return a.scheme
}

// Resolve returns a handle for uri; a trailing slash marks a directory
func (a *Adapter) Resolve(ctx context.Context, uri *url.URL) (backends.File, error) {
	if uri == nil {
		return nil, backends.ErrInvalidInput
	}
	return a.resolvePath(uri.Path)
}

// ResolvePath is a shortcut for resolving a plain path.
func (a *Adapter) ResolvePath(p string) (backends.File, error) {
	return a.resolvePath(p)
}

func (a *Adapter) resolvePath(p string) (*File, error) {
	dirHint := strings.HasSuffix(p, "/")
	cleaned, err := pathutil.Clean(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", backends.ErrInvalidInput, p, err)
	}
	return a.newFile(cleaned, dirHint), nil
}

// WriteFile stores data at p, creating parent directories.
func (a *Adapter) WriteFile(p string, data []byte) error {
	cleaned, err := pathutil.Clean(p)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.put(cleaned, data)
	return nil
}

// Close drops every stored node
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nodes = map[string]*node{"/": {dir: true, modTime: a.now()}}
	return nil
}

// put stores a file and its parents; caller must hold the write lock
func (a *Adapter) put(p string, data []byte) {
	a.ensureParents(p)
	a.nodes[p] = &node{content: append([]byte(nil), data...), modTime: a.now()}
}

// ensureParents creates missing ancestors; caller must hold the write lock
func (a *Adapter) ensureParents(p string) {
	for dir := path.Dir(p); ; dir = path.Dir(dir) {
		if _, ok := a.nodes[dir]; !ok {
			a.nodes[dir] = &node{dir: true, modTime: a.now()}
		}
		if dir == "/" {
			return
		}
	}
}

func (a *Adapter) lookup(p string) (*node, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n, ok := a.nodes[p]
	if !ok {
		return nil, false
	}
	cp := *n
	return &cp, true
}

// children returns the sorted names directly below dir
func (a *Adapter) children(dir string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	prefix := dir + "/"
	if dir == "/" {
		prefix = "/"
	}
	var names []string
	for p := range a.nodes {
		if p == dir || !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if rest != "" && !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names
}

// writer buffers content until Close
type writer struct {
	bytes.Buffer
	file   *File
	closed bool
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	a := w.file.adapter
	a.mu.Lock()
	defer a.mu.Unlock()
	if n, ok := a.nodes[w.file.path]; ok && n.dir {
		return w.file.fail("write", backends.ErrIsDirectory)
	}
	a.put(w.file.path, w.Bytes())
	return nil
}
