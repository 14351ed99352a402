// Package core provides the scheme registry that dispatches URIs to the
// backend serving them.
package core

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/logutil"
	"github.com/ebogdum/hotfs/internal/pathutil"
	"github.com/ebogdum/hotfs/metrics"
)

// Registry maps URI schemes to backends. The zero value is not usable; build
// one with NewRegistry and pass it to whoever needs to resolve URIs.
type Registry struct {
	mu            sync.RWMutex
	backends      map[string]backends.Backend
	defaultScheme string
	logger        *zap.Logger
}

// NewRegistry creates a registry with def registered under its scheme and
// used for URIs that carry no scheme.
func NewRegistry(def backends.Backend, logger *zap.Logger) (*Registry, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: default backend is nil", backends.ErrInvalidInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		backends:      make(map[string]backends.Backend),
		defaultScheme: strings.ToLower(def.Scheme()),
		logger:        logger,
	}
	r.backends[r.defaultScheme] = def
	return r, nil
}

// Register binds b to its scheme, replacing any earlier binding.
func (r *Registry) Register(b backends.Backend) error {
	if b == nil {
		return fmt.Errorf("%w: backend is nil", backends.ErrInvalidInput)
	}
	scheme := strings.ToLower(b.Scheme())
	if scheme == "" {
		return fmt.Errorf("%w: backend has empty scheme", backends.ErrInvalidInput)
	}

	r.mu.Lock()
	_, replaced := r.backends[scheme]
	r.backends[scheme] = b
	r.mu.Unlock()

	r.logger.Debug("Backend registered",
		zap.String("scheme", scheme),
		zap.Bool("replaced", replaced))
	return nil
}

// Backend returns the backend bound to scheme.
func (r *Registry) Backend(scheme string) (backends.Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[strings.ToLower(scheme)]
	return b, ok
}

// DefaultScheme returns the scheme used for scheme-less URIs.
func (r *Registry) DefaultScheme() string {
	return r.defaultScheme
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemes := make([]string, 0, len(r.backends))
	for scheme := range r.backends {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Resolve dispatches uri to the backend registered for its scheme.
func (r *Registry) Resolve(ctx context.Context, uri *url.URL) (backends.File, error) {
	if uri == nil {
		metrics.ResolveTotal.WithLabelValues("", "invalid").Inc()
		return nil, fmt.Errorf("%w: nil URI", backends.ErrInvalidInput)
	}

	scheme := strings.ToLower(uri.Scheme)
	if scheme == "" {
		scheme = r.defaultScheme
	}

	b, ok := r.Backend(scheme)
	if !ok {
		metrics.ResolveTotal.WithLabelValues(scheme, "unsupported").Inc()
		return nil, fmt.Errorf("%w: %q in %s", backends.ErrUnsupportedScheme, scheme, logutil.RedactURI(uri))
	}

	f, err := b.Resolve(ctx, uri)
	if err != nil {
		metrics.ResolveTotal.WithLabelValues(scheme, "error").Inc()
		return nil, err
	}

	metrics.ResolveTotal.WithLabelValues(scheme, "success").Inc()
	return f, nil
}

// ResolveString parses s and resolves it. Literal spaces are escaped before
// parsing so plain paths such as "/tmp/my file.txt" are accepted.
func (r *Registry) ResolveString(ctx context.Context, s string) (backends.File, error) {
	if strings.TrimSpace(s) == "" {
		metrics.ResolveTotal.WithLabelValues("", "invalid").Inc()
		return nil, fmt.Errorf("%w: empty URI", backends.ErrInvalidInput)
	}

	uri, err := url.Parse(pathutil.Escape(s))
	if err != nil {
		metrics.ResolveTotal.WithLabelValues("", "invalid").Inc()
		return nil, fmt.Errorf("%w: %v", backends.ErrInvalidInput, err)
	}
	return r.Resolve(ctx, uri)
}

// Close closes every registered backend and returns the first error.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	seen := make(map[backends.Backend]bool)
	for scheme, b := range r.backends {
		if seen[b] {
			continue
		}
		seen[b] = true
		if err := b.Close(); err != nil {
			r.logger.Warn("Failed to close backend", zap.String("scheme", scheme), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
