package backends_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/backends/memory"
)

func TestReadWriteCopy(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	dst := memory.New("other")

	f, _ := src.ResolvePath("/a/doc.txt")
	if err := backends.WriteAll(ctx, f, []byte("payload")); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}

	data, err := backends.ReadAll(ctx, f)
	if err != nil || string(data) != "payload" {
		t.Fatalf("ReadAll = %q, %v", data, err)
	}

	target, _ := dst.ResolvePath("/copy.txt")
	if err := backends.CopyTo(ctx, f, target); err != nil {
		t.Fatalf("CopyTo failed: %v", err)
	}
	if data, _ := backends.ReadAll(ctx, target); string(data) != "payload" {
		t.Errorf("copied content = %q", data)
	}

	dir, _ := src.ResolvePath("/a/")
	if _, err := backends.ReadAll(ctx, dir); !errors.Is(err, backends.ErrIsDirectory) {
		t.Errorf("expected ErrIsDirectory reading a directory, got %v", err)
	}
	if err := backends.WriteAll(ctx, dir, nil); !errors.Is(err, backends.ErrIsDirectory) {
		t.Errorf("expected ErrIsDirectory writing a directory, got %v", err)
	}
}

func TestRemoveAll(t *testing.T) {
	ctx := context.Background()
	mem, root := newTree(t)

	d, _ := mem.ResolvePath("/r/d/")
	if err := backends.RemoveAll(ctx, d); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if ok, _ := d.Exists(ctx); ok {
		t.Error("directory still exists")
	}

	files, _ := backends.List(ctx, root, nil, nil, nil)
	if got := names(files); got != ".h,a.txt,B.txt" {
		t.Errorf("remaining entries %s", got)
	}

	missing, _ := mem.ResolvePath("/r/zzz")
	if err := backends.RemoveAll(ctx, missing); err != nil {
		t.Errorf("RemoveAll on a missing file should succeed, got %v", err)
	}

	single, _ := mem.ResolvePath("/r/a.txt")
	if err := backends.RemoveAll(ctx, single); err != nil {
		t.Fatalf("RemoveAll on a file failed: %v", err)
	}
	if ok, _ := single.Exists(ctx); ok {
		t.Error("file still exists")
	}
}

func TestEnsureParent(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()

	f, _ := mem.ResolvePath("/x/y/z.txt")
	got, err := backends.EnsureParent(ctx, f)
	if err != nil || got != f {
		t.Fatalf("EnsureParent = %v, %v", got, err)
	}
	parent, _ := mem.ResolvePath("/x/y/")
	if ok, _ := parent.Exists(ctx); !ok {
		t.Error("parent directory was not created")
	}
	if ok, _ := f.Exists(ctx); ok {
		t.Error("file itself must not be created")
	}

	dir, _ := mem.ResolvePath("/p/q/")
	if _, err := backends.EnsureParent(ctx, dir); err != nil {
		t.Fatalf("EnsureParent on a directory failed: %v", err)
	}
	if ok, _ := dir.Exists(ctx); !ok {
		t.Error("missing directory handle was not created")
	}
}

func TestIdentity(t *testing.T) {
	a := memory.New()
	b := memory.New("other")

	f1, _ := a.ResolvePath("/same/file")
	f2, _ := a.ResolvePath("//same/./file")
	f3, _ := b.ResolvePath("/same/file")

	if !backends.Equal(f1, f2) {
		t.Errorf("expected %s and %s to be equal", backends.Key(f1), backends.Key(f2))
	}
	if backends.Equal(f1, f3) {
		t.Error("handles on different schemes must differ")
	}
	if !backends.SameBackend(f1, f2) || backends.SameBackend(f1, f3) {
		t.Error("SameBackend mismatch")
	}
	if !backends.Equal(nil, nil) || backends.Equal(f1, nil) {
		t.Error("nil handling mismatch")
	}

	var be *backends.Error
	err := backends.NewError("open", "mem:///x", backends.ErrNotFound)
	if !errors.As(err, &be) || !errors.Is(err, backends.ErrBackendIO) || !backends.IsNotFound(err) {
		t.Error("backend error taxonomy mismatch")
	}
}
