// Package localfs implements the "file" scheme on top of the local
// filesystem. The same backend, confined to a mount point, also serves
// pre-mounted network shares.
package localfs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/pathutil"
)

// Scheme is the default URI scheme served by this package.
const Scheme = "file"

// Options configures a local filesystem backend.
type Options struct {
	// Scheme overrides the served scheme; defaults to "file"
	Scheme string

	// Root confines every resolved path below this directory. When empty,
	// URI paths are used as host paths directly.
	Root string

	// Host and Prefix are rendered into handle URIs in front of the path.
	// They let a share mounted at Root keep its remote identity.
	Host   string
	Prefix string
}

// LocalFSAdapter implements backends.Backend for the local filesystem
type LocalFSAdapter struct {
	scheme string
	root   string
	host   string
	prefix string
	logger *zap.Logger
}

// NewLocalFSAdapter creates a new local filesystem backend
func NewLocalFSAdapter(opts Options, logger *zap.Logger) (*LocalFSAdapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	scheme := opts.Scheme
	if scheme == "" {
		scheme = Scheme
	}

	root := ""
	if opts.Root != "" {
		root = filepath.Clean(opts.Root)

		// Ensure root path exists
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("failed to create root path %s: %w", root, err)
		}

		// Verify path is accessible
		if _, err := os.Stat(root); err != nil {
			return nil, fmt.Errorf("root path %s is not accessible: %w", root, err)
		}
	}

	prefix := strings.TrimSuffix(opts.Prefix, "/")
	if prefix != "" && !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	return &LocalFSAdapter{
		scheme: scheme,
		root:   root,
		host:   opts.Host,
		prefix: prefix,
		logger: logger,
	}, nil
}

// Scheme returns the URI scheme served by the adapter
func (a *LocalFSAdapter) Scheme() string {
	return a.scheme
}

// Resolve returns a handle for uri. A trailing slash marks the handle as a
// directory until the path exists on disk.
func (a *LocalFSAdapter) Resolve(ctx context.Context, uri *url.URL) (backends.File, error) {
	if uri == nil {
		return nil, backends.ErrInvalidInput
	}

	p := uri.Path
	if p == "" {
		p = pathutil.Unescape(uri.Opaque)
	}
	if p == "" {
		p = "/"
	}
	if a.prefix != "" {
		p = strings.TrimPrefix(p, a.prefix)
	}
	return a.resolvePath(p)
}

func (a *LocalFSAdapter) resolvePath(p string) (*File, error) {
	dirHint := strings.HasSuffix(p, "/")
	p = pathutil.CleanPath(p)

	if a.root == "" {
		p = pathutil.ExpandHome(p)
		if !strings.HasPrefix(p, "/") {
			abs, err := filepath.Abs(filepath.FromSlash(p))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", backends.ErrInvalidInput, err)
			}
			p = filepath.ToSlash(abs)
		}
		p = path.Clean(p)
	} else {
		cleaned, err := pathutil.Clean(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", backends.ErrInvalidInput, p, err)
		}
		p = cleaned
	}

	return a.newFile(p, dirHint), nil
}

// hostPath maps a virtual path to the path on disk.
func (a *LocalFSAdapter) hostPath(p string) (string, error) {
	if a.root == "" {
		return filepath.FromSlash(p), nil
	}
	return pathutil.SafeJoin(a.root, p)
}

// Close closes any resources used by the storage backend
func (a *LocalFSAdapter) Close() error {
	// No resources to close for local filesystem
	return nil
}
