package backends

import (
	"context"
	"sort"
	"time"

	"github.com/ebogdum/hotfs/metrics"
)

// List walks root depth first and returns every entry accepted by grab,
// descending into directories accepted by move, then sorts the complete
// result once with cmp.
//
// A root that does not exist or cannot be read lists as empty, and so does
// any unreadable directory below it. Errors returned by the filters and
// context cancellation abort the listing. Nil arguments default to
// Everything, AllDirectories and DefaultComparator.
func List(ctx context.Context, root File, grab GrabFilter, move MoveFilter, cmp Comparator) ([]File, error) {
	if root == nil {
		return nil, ErrInvalidInput
	}
	if grab == nil {
		grab = Everything
	}
	if move == nil {
		move = AllDirectories
	}
	if cmp == nil {
		cmp = DefaultComparator
	}

	start := time.Now()
	files, err := walk(ctx, root, grab, move, 0)
	if err != nil {
		closeAll(files)
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		return cmp(ctx, files[i], files[j]) < 0
	})

	metrics.ListDuration.WithLabelValues(root.Scheme()).Observe(time.Since(start).Seconds())
	return files, nil
}

func walk(ctx context.Context, dir File, grab GrabFilter, move MoveFilter, depth int) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	children, err := dir.ReadDir(ctx)
	if err != nil {
		// Unreadable directories contribute nothing, unless we were cancelled
		return nil, ctx.Err()
	}

	var result []File
	for i, child := range children {
		if child.Name() == "." {
			child.Close()
			continue
		}

		sub, keep, err := visit(ctx, child, grab, move, depth)
		if err != nil {
			closeAll(children[i+1:])
			closeAll(result)
			return nil, err
		}
		if keep {
			result = append(result, child)
		} else {
			child.Close()
		}
		result = append(result, sub...)
	}

	return result, nil
}

// visit applies both filters to child and returns the listing below it.
func visit(ctx context.Context, child File, grab GrabFilter, move MoveFilter, depth int) ([]File, bool, error) {
	keep, err := grab(ctx, child)
	if err != nil {
		child.Close()
		return nil, false, err
	}

	isDir, err := child.IsDirectory(ctx)
	if err != nil {
		child.Close()
		return nil, false, err
	}
	if !isDir {
		return nil, keep, nil
	}

	descend, err := move(ctx, child, depth)
	if err != nil {
		child.Close()
		return nil, false, err
	}
	if !descend {
		return nil, keep, nil
	}

	sub, err := walk(ctx, child, grab, move, depth+1)
	if err != nil {
		child.Close()
		return nil, false, err
	}
	return sub, keep, nil
}

func closeAll(files []File) {
	for _, f := range files {
		f.Close()
	}
}
