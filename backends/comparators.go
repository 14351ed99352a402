package backends

import (
	"context"
	"fmt"
	"strings"

	"github.com/ebogdum/hotfs/internal/pathutil"
)

// Comparator orders two files; negative means a sorts first. Standard
// comparators may perform backend I/O and treat failed lookups as equal.
type Comparator func(ctx context.Context, a, b File) int

// SortKey selects the attribute a standard comparator orders by.
type SortKey int

const (
	ByName SortKey = iota
	ByModified
	ByDepth
)

// Order selects the sort direction.
type Order int

const (
	Ascending  Order = 1
	Descending Order = -1
)

// DefaultComparator orders by name, case-insensitive, ascending.
var DefaultComparator = SortBy(ByName, Ascending)

// SortBy returns a comparator over key in the given order. Ties are broken
// by URI so the order is total and Descending is the exact reverse of
// Ascending.
func SortBy(key SortKey, order Order) Comparator {
	if order != Descending {
		order = Ascending
	}
	return func(ctx context.Context, a, b File) int {
		c := compareKey(ctx, key, a, b)
		if c == 0 {
			c = strings.Compare(Key(a), Key(b))
		}
		return int(order) * c
	}
}

func compareKey(ctx context.Context, key SortKey, a, b File) int {
	switch key {
	case ByModified:
		ta, errA := a.LastModified(ctx)
		tb, errB := b.LastModified(ctx)
		if errA != nil || errB != nil {
			return 0
		}
		return compareInt64(ta, tb)
	case ByDepth:
		return compareInt64(int64(pathutil.Depth(a.Path())), int64(pathutil.Depth(b.Path())))
	default:
		return strings.Compare(strings.ToLower(a.Name()), strings.ToLower(b.Name()))
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// ParseSortKey maps "name", "modified" or "depth" to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name":
		return ByName, nil
	case "modified", "mtime":
		return ByModified, nil
	case "depth":
		return ByDepth, nil
	default:
		return ByName, fmt.Errorf("%w: unknown sort key %q", ErrInvalidInput, s)
	}
}

// ParseOrder maps "asc" or "desc" to an Order.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("%w: unknown sort order %q", ErrInvalidInput, s)
	}
}
