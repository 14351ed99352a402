package hotfolder

import (
	"context"
	"fmt"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/config"
)

// Resolver turns configured URI strings into handles
type Resolver interface {
	ResolveString(ctx context.Context, uri string) (backends.File, error)
}

// OptionsFromConfig resolves the folder of cfg and translates its filter
// and sort settings. The caller owns the returned folder handle.
func OptionsFromConfig(ctx context.Context, r Resolver, cfg config.HotfolderConfig) (Options, error) {
	grab, err := IncludeFilter(cfg.Include, cfg.Glob)
	if err != nil {
		return Options{}, err
	}
	move, err := RecurseFilter(cfg.Recurse, cfg.MaxDepth)
	if err != nil {
		return Options{}, err
	}
	key, err := backends.ParseSortKey(cfg.Sort)
	if err != nil {
		return Options{}, err
	}
	order, err := backends.ParseOrder(cfg.Order)
	if err != nil {
		return Options{}, err
	}

	folder, err := r.ResolveString(ctx, cfg.Folder)
	if err != nil {
		return Options{}, fmt.Errorf("failed to resolve hotfolder %s: %w", cfg.ID, err)
	}

	return Options{
		ID:          cfg.ID,
		Folder:      folder,
		Interval:    cfg.Interval,
		Settle:      cfg.Settle,
		StopTimeout: cfg.StopTimeout,
		Grab:        grab,
		Move:        move,
		Compare:     backends.SortBy(key, order),
	}, nil
}

// IncludeFilter translates an include mode and optional glob into a grab filter
func IncludeFilter(include, pattern string) (backends.GrabFilter, error) {
	var grab backends.GrabFilter
	switch include {
	case "", "visible":
		grab = backends.AllVisible
	case "all":
		grab = backends.Everything
	case "visible_files":
		grab = backends.VisibleFiles
	case "files":
		grab = backends.FilesOnly
	default:
		return nil, fmt.Errorf("%w: unknown include mode %q", backends.ErrInvalidInput, include)
	}

	if pattern == "" {
		return grab, nil
	}
	glob, err := backends.Glob(pattern)
	if err != nil {
		return nil, err
	}
	return backends.And(grab, glob), nil
}

// RecurseFilter translates a recurse mode and depth limit into a move filter
func RecurseFilter(recurse string, maxDepth int) (backends.MoveFilter, error) {
	var move backends.MoveFilter
	switch recurse {
	case "", "none":
		return backends.OnlyThisDirectory, nil
	case "all":
		move = backends.AllDirectories
	case "visible":
		move = backends.VisibleDirectories
	default:
		return nil, fmt.Errorf("%w: unknown recurse mode %q", backends.ErrInvalidInput, recurse)
	}

	if maxDepth <= 0 {
		return move, nil
	}
	limit := backends.MaxDepth(maxDepth)
	return func(ctx context.Context, f backends.File, depth int) (bool, error) {
		ok, err := move(ctx, f, depth)
		if err != nil || !ok {
			return false, err
		}
		return limit(ctx, f, depth)
	}, nil
}
