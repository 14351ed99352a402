package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/config"
	"github.com/ebogdum/hotfs/hotfolder"
	"github.com/ebogdum/hotfs/internal/logutil"
)

// runList prints the listing of one folder
func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initializeLogger(config.LogConfig{Level: "error", Format: "console"})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	registry, err := buildRegistry(cfg.Backend, logger)
	if err != nil {
		return err
	}
	defer registry.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	root, err := registry.ResolveString(ctx, args[0])
	if err != nil {
		return err
	}
	defer root.Close()

	files, err := listFolder(ctx, root, listOptions{
		recursive: listRecursive,
		all:       listAll,
		sort:      listSort,
		desc:      listDesc,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, f := range files {
		fmt.Fprintln(tw, formatEntry(ctx, f))
		f.Close()
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	logger.Debug("Listed", logutil.URI("uri", root.URI()), zap.Int("count", len(files)))
	return nil
}

type listOptions struct {
	recursive bool
	all       bool
	sort      string
	desc      bool
}

func listFolder(ctx context.Context, root backends.File, opts listOptions) ([]backends.File, error) {
	include := "visible"
	if opts.all {
		include = "all"
	}
	recurse := "none"
	if opts.recursive {
		recurse = include
	}

	grab, err := hotfolder.IncludeFilter(include, "")
	if err != nil {
		return nil, err
	}
	move, err := hotfolder.RecurseFilter(recurse, 0)
	if err != nil {
		return nil, err
	}
	key, err := backends.ParseSortKey(opts.sort)
	if err != nil {
		return nil, err
	}
	order := backends.Ascending
	if opts.desc {
		order = backends.Descending
	}

	return root.List(ctx, grab, move, backends.SortBy(key, order))
}

func formatEntry(ctx context.Context, f backends.File) string {
	kind, size := "f", "-"
	if dir, _ := f.IsDirectory(ctx); dir {
		kind = "d"
	} else if n, err := f.Length(ctx); err == nil {
		size = fmt.Sprintf("%d", n)
	}
	modified := "-"
	if ms, err := f.LastModified(ctx); err == nil {
		modified = time.UnixMilli(ms).UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", kind, size, modified, logutil.RedactURI(f.URI()))
}
