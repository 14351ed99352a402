package backends_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/backends/memory"
)

func newTree(t *testing.T) (*memory.Adapter, backends.File) {
	t.Helper()
	mem := memory.New()
	for _, p := range []string{
		"/r/a.txt",
		"/r/B.txt",
		"/r/.h",
		"/r/d/c.txt",
		"/r/d/.hid/x",
		"/r/d/e/f.txt",
	} {
		if err := mem.WriteFile(p, []byte(p)); err != nil {
			t.Fatalf("WriteFile(%s): %v", p, err)
		}
	}
	root, err := mem.ResolvePath("/r/")
	if err != nil {
		t.Fatalf("ResolvePath: %v", err)
	}
	return mem, root
}

func names(files []backends.File) string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name())
	}
	return strings.Join(out, ",")
}

func mustGlob(t *testing.T, pattern string) backends.GrabFilter {
	t.Helper()
	g, err := backends.Glob(pattern)
	if err != nil {
		t.Fatalf("Glob(%q): %v", pattern, err)
	}
	return g
}

func TestList(t *testing.T) {
	ctx := context.Background()
	_, root := newTree(t)

	tests := []struct {
		name string
		grab backends.GrabFilter
		move backends.MoveFilter
		cmp  backends.Comparator
		want string
	}{
		{"everything", backends.Everything, backends.AllDirectories, nil, ".h,.hid,a.txt,B.txt,c.txt,d,e,f.txt,x"},
		{"visible", backends.AllVisible, backends.VisibleDirectories, nil, "a.txt,B.txt,c.txt,d,e,f.txt"},
		{"visible files here", backends.VisibleFiles, backends.OnlyThisDirectory, nil, "a.txt,B.txt"},
		{"files to depth one", backends.FilesOnly, backends.MaxDepth(1), nil, ".h,a.txt,B.txt,c.txt"},
		{"glob", backends.And(backends.AllVisible, mustGlob(t, "*.txt")), backends.AllDirectories, nil, "a.txt,B.txt,c.txt,f.txt"},
		{"name descending", backends.VisibleFiles, backends.OnlyThisDirectory, backends.SortBy(backends.ByName, backends.Descending), "B.txt,a.txt"},
		{"defaults", nil, nil, nil, ".h,.hid,a.txt,B.txt,c.txt,d,e,f.txt,x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := backends.List(ctx, root, tt.grab, tt.move, tt.cmp)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if got := names(files); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestListByDepthAndModified(t *testing.T) {
	ctx := context.Background()
	mem, root := newTree(t)

	files, err := backends.List(ctx, root, backends.FilesOnly, backends.AllDirectories, backends.SortBy(backends.ByDepth, backends.Descending))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 6 {
		t.Fatalf("expected 6 files, got %s", names(files))
	}
	for i := 1; i < len(files); i++ {
		if strings.Count(files[i-1].Path(), "/") < strings.Count(files[i].Path(), "/") {
			t.Errorf("depth order broken at %s", names(files))
		}
	}

	for i, p := range []string{"/r/a.txt", "/r/B.txt"} {
		f, _ := mem.ResolvePath(p)
		if err := f.SetLastModified(ctx, int64(1000*(2-i))); err != nil {
			t.Fatalf("SetLastModified: %v", err)
		}
	}
	files, err = backends.List(ctx, root, backends.VisibleFiles, backends.OnlyThisDirectory, backends.SortBy(backends.ByModified, backends.Ascending))
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if got := names(files); got != "B.txt,a.txt" {
		t.Errorf("got %s, want B.txt,a.txt", got)
	}
}

func TestListDescendingReversesAscending(t *testing.T) {
	ctx := context.Background()
	_, root := newTree(t)

	for _, key := range []backends.SortKey{backends.ByName, backends.ByModified, backends.ByDepth} {
		asc, _ := backends.List(ctx, root, nil, nil, backends.SortBy(key, backends.Ascending))
		desc, _ := backends.List(ctx, root, nil, nil, backends.SortBy(key, backends.Descending))
		if len(asc) != len(desc) {
			t.Fatalf("length mismatch for key %d", key)
		}
		for i := range asc {
			if !backends.Equal(asc[i], desc[len(desc)-1-i]) {
				t.Errorf("key %d: descending is not the reverse of ascending", key)
				break
			}
		}
	}
}

func TestListEdgeCases(t *testing.T) {
	ctx := context.Background()
	mem, root := newTree(t)

	if _, err := backends.List(ctx, nil, nil, nil, nil); !errors.Is(err, backends.ErrInvalidInput) {
		t.Errorf("expected invalid input for nil root, got %v", err)
	}

	missing, _ := mem.ResolvePath("/nope/")
	files, err := backends.List(ctx, missing, nil, nil, nil)
	if err != nil || len(files) != 0 {
		t.Errorf("missing root: got %d files, err %v", len(files), err)
	}

	boom := errors.New("boom")
	failing := func(ctx context.Context, f backends.File) (bool, error) {
		if f.Name() == "c.txt" {
			return false, boom
		}
		return true, nil
	}
	if _, err := backends.List(ctx, root, failing, nil, nil); !errors.Is(err, boom) {
		t.Errorf("expected filter error, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := backends.List(cancelled, root, nil, nil, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// unreadableDir fails ReadDir for every directory named deny
type unreadableDir struct {
	backends.File
	deny string
}

func (u unreadableDir) ReadDir(ctx context.Context) ([]backends.File, error) {
	if u.Name() == u.deny {
		return nil, errors.New("permission denied")
	}
	children, err := u.File.ReadDir(ctx)
	for i, child := range children {
		children[i] = unreadableDir{File: child, deny: u.deny}
	}
	return children, err
}

func TestListSkipsUnreadableDirectories(t *testing.T) {
	ctx := context.Background()
	_, root := newTree(t)

	tests := []struct {
		deny string
		want string
	}{
		{"d", ".h,a.txt,B.txt,d"},
		{"e", ".h,.hid,a.txt,B.txt,c.txt,d,e,x"},
		{".hid", ".h,.hid,a.txt,B.txt,c.txt,d,e,f.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.deny, func(t *testing.T) {
			files, err := backends.List(ctx, unreadableDir{File: root, deny: tt.deny}, nil, nil, nil)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if got := names(files); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestListIsRepeatable(t *testing.T) {
	ctx := context.Background()
	_, root := newTree(t)

	keys := func() string {
		files, err := backends.List(ctx, root, backends.Everything, backends.AllDirectories, backends.SortBy(backends.ByDepth, backends.Descending))
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		out := make([]string, 0, len(files))
		for _, f := range files {
			out = append(out, backends.Key(f))
		}
		return strings.Join(out, "\n")
	}

	first, second := keys(), keys()
	if first != second {
		t.Errorf("listings differ:\n%s\n--\n%s", first, second)
	}
	if first == "" {
		t.Error("expected a non-empty listing")
	}
}

func TestParseSortKeyAndOrder(t *testing.T) {
	keys := []struct {
		in      string
		want    backends.SortKey
		wantErr bool
	}{
		{"", backends.ByName, false},
		{"Name", backends.ByName, false},
		{"mtime", backends.ByModified, false},
		{"modified", backends.ByModified, false},
		{" depth ", backends.ByDepth, false},
		{"size", backends.ByName, true},
	}
	for _, tt := range keys {
		got, err := backends.ParseSortKey(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseSortKey(%q) = %v, %v", tt.in, got, err)
		}
		if tt.wantErr && !errors.Is(err, backends.ErrInvalidInput) {
			t.Errorf("ParseSortKey(%q) error should be invalid input", tt.in)
		}
	}

	orders := []struct {
		in      string
		want    backends.Order
		wantErr bool
	}{
		{"", backends.Ascending, false},
		{"asc", backends.Ascending, false},
		{"DESC", backends.Descending, false},
		{"descending", backends.Descending, false},
		{"up", backends.Ascending, true},
	}
	for _, tt := range orders {
		got, err := backends.ParseOrder(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOrder(%q) = %v, %v", tt.in, got, err)
		}
	}
}
