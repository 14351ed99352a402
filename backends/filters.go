package backends

import (
	"context"
	"fmt"

	"github.com/gobwas/glob"
)

// GrabFilter decides whether a file is included in a listing.
type GrabFilter func(ctx context.Context, f File) (bool, error)

// MoveFilter decides whether a listing descends into directory f found at
// the given depth (children of the listing root are at depth 0).
type MoveFilter func(ctx context.Context, f File, depth int) (bool, error)

// Everything includes every entry.
func Everything(ctx context.Context, f File) (bool, error) {
	return true, nil
}

// AllVisible includes visible files and directories.
func AllVisible(ctx context.Context, f File) (bool, error) {
	return f.IsVisible(ctx)
}

// VisibleFiles includes visible regular files only.
func VisibleFiles(ctx context.Context, f File) (bool, error) {
	isFile, err := f.IsFile(ctx)
	if err != nil || !isFile {
		return false, err
	}
	return f.IsVisible(ctx)
}

// FilesOnly includes regular files, hidden or not.
func FilesOnly(ctx context.Context, f File) (bool, error) {
	return f.IsFile(ctx)
}

// Glob includes entries whose name matches pattern.
func Glob(pattern string) (GrabFilter, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: glob %q: %v", ErrInvalidInput, pattern, err)
	}
	return func(ctx context.Context, f File) (bool, error) {
		return g.Match(f.Name()), nil
	}, nil
}

// And includes an entry only when every filter includes it.
func And(filters ...GrabFilter) GrabFilter {
	return func(ctx context.Context, f File) (bool, error) {
		for _, filter := range filters {
			ok, err := filter(ctx, f)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// AllDirectories descends into every directory.
func AllDirectories(ctx context.Context, f File, depth int) (bool, error) {
	return true, nil
}

// VisibleDirectories descends into visible directories.
func VisibleDirectories(ctx context.Context, f File, depth int) (bool, error) {
	return f.IsVisible(ctx)
}

// OnlyThisDirectory never descends.
func OnlyThisDirectory(ctx context.Context, f File, depth int) (bool, error) {
	return false, nil
}

// MaxDepth descends while depth is below max, so MaxDepth(1) lists the
// root's children and grandchildren.
func MaxDepth(max int) MoveFilter {
	return func(ctx context.Context, f File, depth int) (bool, error) {
		return depth < max, nil
	}
}
