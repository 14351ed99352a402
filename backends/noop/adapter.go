// Package noop provides a placeholder backend for known schemes that are
// not enabled in the configuration.
package noop

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/internal/logutil"
)

// ErrNotEnabled is returned for every URI of a disabled scheme
var ErrNotEnabled = fmt.Errorf("%w: backend not enabled", backends.ErrUnsupportedScheme)

// NoopAdapter is a no-operation backend that always returns errors.
// Registering it keeps "scheme not enabled" distinct from "scheme unknown".
type NoopAdapter struct {
	scheme string
}

// NewNoopAdapter creates a placeholder for scheme
func NewNoopAdapter(scheme string) *NoopAdapter {
	return &NoopAdapter{scheme: scheme}
}

func (n *NoopAdapter) Scheme() string {
	return n.scheme
}

// Resolve always returns an error for noop backend
func (n *NoopAdapter) Resolve(ctx context.Context, uri *url.URL) (backends.File, error) {
	return nil, fmt.Errorf("%w: cannot resolve %s", ErrNotEnabled, logutil.RedactURI(uri))
}

// Close does nothing for noop backend
func (n *NoopAdapter) Close() error {
	return nil
}
