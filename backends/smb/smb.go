// Package smb provides the "smb" scheme over SMB/CIFS shares.
// Each share must be pre-mounted on the OS (via mount.cifs or fstab); the
// backend maps smb://host/share/path onto the local filesystem backend
// confined to the mount path.
package smb

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/backends/localfs"
)

// Scheme is the URI scheme served by this package
const Scheme = "smb"

// Adapter routes SMB URIs to the local mount of their share
type Adapter struct {
	shares map[string]*localfs.LocalFSAdapter // "host/share" -> mount
	logger *zap.Logger
}

// New creates an SMB backend from a map of "host/share" to mount path.
func New(mounts map[string]string, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Adapter{
		shares: make(map[string]*localfs.LocalFSAdapter, len(mounts)),
		logger: logger,
	}

	for name, mountPath := range mounts {
		host, share, ok := strings.Cut(strings.Trim(name, "/"), "/")
		if !ok || host == "" || share == "" || strings.Contains(share, "/") {
			return nil, fmt.Errorf("smb share %q must be host/share", name)
		}
		if mountPath == "" {
			return nil, fmt.Errorf("smb share %s: mount_path is required", name)
		}

		lb, err := localfs.NewLocalFSAdapter(localfs.Options{
			Scheme: Scheme,
			Root:   mountPath,
			Host:   strings.ToLower(host),
			Prefix: "/" + share,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("smb backend at %s: %w", mountPath, err)
		}
		a.shares[shareKey(host, share)] = lb

		logger.Info("SMB share mounted",
			zap.String("share", host+"/"+share),
			zap.String("mount_path", mountPath))
	}

	return a, nil
}

func shareKey(host, share string) string {
	return strings.ToLower(host) + "/" + share
}

// Scheme returns "smb".
func (a *Adapter) Scheme() string { return Scheme }

// Shares returns the configured shares as sorted "host/share" names
func (a *Adapter) Shares() []string {
	names := make([]string, 0, len(a.shares))
	for name := range a.shares {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve delegates to the mount serving the URI's share
func (a *Adapter) Resolve(ctx context.Context, uri *url.URL) (backends.File, error) {
	if uri == nil {
		return nil, backends.ErrInvalidInput
	}
	share, _, _ := strings.Cut(strings.TrimPrefix(uri.Path, "/"), "/")
	lb, ok := a.shares[shareKey(uri.Hostname(), share)]
	if !ok {
		return nil, fmt.Errorf("%w: smb share %s/%s is not mounted", backends.ErrInvalidInput, uri.Hostname(), share)
	}
	return lb.Resolve(ctx, uri)
}

// Close closes every share backend.
func (a *Adapter) Close() error {
	for _, lb := range a.shares {
		lb.Close()
	}
	return nil
}
