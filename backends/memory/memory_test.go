package memory

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/ebogdum/hotfs/backends"
)

func TestResolveAndIdentity(t *testing.T) {
	ctx := context.Background()
	a := New()
	if err := a.WriteFile("/in/doc.txt", []byte("abc")); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		raw   string
		want  string
		isDir bool
	}{
		{"mem:///in/doc.txt", "mem:///in/doc.txt", false},
		{"mem:///in", "mem:///in/", true},
		{"mem:///in/", "mem:///in/", true},
		{"mem:///new/", "mem:///new/", true},
		{"mem:///new", "mem:///new", false},
	}
	for _, tt := range tests {
		u, _ := url.Parse(tt.raw)
		f, err := a.Resolve(ctx, u)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tt.raw, err)
		}
		if got := f.URI().String(); got != tt.want {
			t.Errorf("Resolve(%s) URI = %s, want %s", tt.raw, got, tt.want)
		}
		if isDir, _ := f.IsDirectory(ctx); isDir != tt.isDir {
			t.Errorf("Resolve(%s) IsDirectory = %v", tt.raw, isDir)
		}
	}

	if _, err := a.Resolve(ctx, nil); !errors.Is(err, backends.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
	if _, err := a.ResolvePath("/../x"); !errors.Is(err, backends.ErrInvalidInput) {
		t.Errorf("expected traversal to be rejected, got %v", err)
	}
}

func TestParent(t *testing.T) {
	ctx := context.Background()
	a := New()
	if err := a.WriteFile("/in/sub/doc.txt", []byte("abc")); err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"/in/sub/doc.txt": "mem:///in/sub/",
		"/in/sub/":        "mem:///in/",
		"/in":             "mem:///",
		"/":               "mem:///",
	}
	for p, want := range tests {
		f, _ := a.ResolvePath(p)
		parent, err := f.Parent(ctx)
		if err != nil {
			t.Fatalf("Parent(%s): %v", p, err)
		}
		if got := backends.Key(parent); got != want {
			t.Errorf("Parent(%s) = %s, want %s", p, got, want)
		}
	}
}

func TestDirectoryOperations(t *testing.T) {
	ctx := context.Background()
	a := New()

	deep, _ := a.ResolvePath("/a/b/")
	if err := deep.Mkdir(ctx); !backends.IsNotFound(err) {
		t.Errorf("Mkdir without parent should fail with not found, got %v", err)
	}
	if err := deep.Mkdirs(ctx); err != nil {
		t.Fatalf("Mkdirs failed: %v", err)
	}
	if err := deep.Mkdir(ctx); err == nil {
		t.Error("Mkdir on existing directory should fail")
	}

	if err := a.WriteFile("/a/b/c.txt", []byte("c")); err != nil {
		t.Fatal(err)
	}
	if err := deep.Delete(ctx); err == nil {
		t.Error("deleting a non-empty directory should fail")
	}
	root, _ := a.ResolvePath("/")
	if err := root.Delete(ctx); !errors.Is(err, backends.ErrNotSupported) {
		t.Errorf("deleting the root should be unsupported, got %v", err)
	}

	children, err := root.ReadDir(ctx)
	if err != nil || len(children) != 1 || children[0].Name() != "a" {
		t.Fatalf("ReadDir(/) = %v, %v", children, err)
	}
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	a := New()
	for _, p := range []string{"/src/x.txt", "/src/sub/y.txt"} {
		if err := a.WriteFile(p, []byte(p)); err != nil {
			t.Fatal(err)
		}
	}

	src, _ := a.ResolvePath("/src/")
	dst, _ := a.ResolvePath("/archive/2024/src/")
	if err := src.Rename(ctx, dst); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	moved, _ := a.ResolvePath("/archive/2024/src/sub/y.txt")
	data, err := backends.ReadAll(ctx, moved)
	if err != nil || string(data) != "/src/sub/y.txt" {
		t.Errorf("moved content = %q, %v", data, err)
	}
	if ok, _ := src.Exists(ctx); ok {
		t.Error("source still exists")
	}

	inside, _ := a.ResolvePath("/archive/2024/src/sub/deeper/")
	if err := dst.Rename(ctx, inside); !errors.Is(err, backends.ErrInvalidInput) {
		t.Errorf("renaming into itself should be rejected, got %v", err)
	}

	foreign, _ := New().ResolvePath("/x")
	if err := moved.Rename(ctx, foreign); !errors.Is(err, backends.ErrCrossBackend) {
		t.Errorf("expected ErrCrossBackend, got %v", err)
	}
}

func TestWriterCommitsOnClose(t *testing.T) {
	ctx := context.Background()
	a := New()
	f, _ := a.ResolvePath("/w.txt")

	w, err := f.OpenWrite(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("data")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := f.Exists(ctx); ok {
		t.Error("content must not be visible before Close")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if n, _ := f.Length(ctx); n != 4 {
		t.Errorf("Length = %d", n)
	}
}
