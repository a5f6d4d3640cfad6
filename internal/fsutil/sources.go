package fsutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/exrun/internal/block"
	"github.com/vk/exrun/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// DefaultReadConcurrency bounds concurrent file reads in ReadSources.
const DefaultReadConcurrency = 8

// ReadSources reads paths concurrently and returns them as sources in the
// same order. Each source ID is the file's real path. The first error cancels
// the remaining reads.
func ReadSources(ctx context.Context, paths []string, concurrency int) ([]block.Source, error) {
	if concurrency <= 0 {
		concurrency = DefaultReadConcurrency
	}
	logger := ctxlog.FromContext(ctx)

	sources := make([]block.Source, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := filepath.Abs(p)
			if err != nil {
				return fmt.Errorf("resolving %s: %w", p, err)
			}
			if real, err := filepath.EvalSymlinks(id); err == nil {
				id = real
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return fmt.Errorf("reading source: %w", err)
			}
			sources[i] = block.Source{ID: id, Text: string(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Read sources.", "count", len(sources))
	return sources, nil
}

// LoadSources finds every source under root and reads it.
func LoadSources(ctx context.Context, root, extension string, skipMarkers []string) ([]block.Source, error) {
	paths, err := FindFilesByExtension(root, extension, skipMarkers...)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	ctxlog.FromContext(ctx).Debug("Found source files.", "root", root, "extension", extension, "count", len(paths))
	return ReadSources(ctx, paths, DefaultReadConcurrency)
}
