package core

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/backends/memory"
	"github.com/ebogdum/hotfs/backends/noop"
)

func TestNewRegistryRequiresDefault(t *testing.T) {
	if _, err := NewRegistry(nil, nil); !errors.Is(err, backends.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestRegistryResolve(t *testing.T) {
	ctx := context.Background()
	def := memory.New()
	if err := def.WriteFile("/docs/my file.txt", []byte("x")); err != nil {
		t.Fatal(err)
	}
	other := memory.New("scratch")

	r, err := NewRegistry(def, nil)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if err := r.Register(other); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(noop.NewNoopAdapter("s3")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name    string
		uri     string
		want    string
		wantErr error
	}{
		{"scheme-less uses default", "/docs/my file.txt", "mem:///docs/my%20file.txt", nil},
		{"explicit scheme", "scratch:///a/b", "scratch:///a/b", nil},
		{"scheme is case-insensitive", "MEM:///docs/", "mem:///docs/", nil},
		{"empty", "   ", "", backends.ErrInvalidInput},
		{"unknown scheme", "gopher://host/x", "", backends.ErrUnsupportedScheme},
		{"disabled scheme", "s3://bucket/key", "", noop.ErrNotEnabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := r.ResolveString(ctx, tt.uri)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveString failed: %v", err)
			}
			defer f.Close()
			if got := f.URI().String(); got != tt.want {
				t.Errorf("URI = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := r.Resolve(ctx, nil); !errors.Is(err, backends.ErrInvalidInput) {
		t.Errorf("expected invalid input for nil URI, got %v", err)
	}
	if _, err := r.Resolve(ctx, &url.URL{Path: "/docs/"}); err != nil {
		t.Errorf("Resolve without scheme failed: %v", err)
	}
}

func TestRegistryRegister(t *testing.T) {
	r, _ := NewRegistry(memory.New(), nil)

	if err := r.Register(nil); !errors.Is(err, backends.ErrInvalidInput) {
		t.Errorf("expected invalid input for nil backend, got %v", err)
	}
	if err := r.Register(noop.NewNoopAdapter("")); !errors.Is(err, backends.ErrInvalidInput) {
		t.Errorf("expected invalid input for empty scheme, got %v", err)
	}

	replacement := memory.New("mem")
	if err := r.Register(replacement); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if b, ok := r.Backend("mem"); !ok || b != replacement {
		t.Error("expected last registration to win")
	}
	if r.DefaultScheme() != "mem" {
		t.Errorf("unexpected default scheme %s", r.DefaultScheme())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
