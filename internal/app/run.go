package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vk/exrun/internal/block"
	"github.com/vk/exrun/internal/ctxlog"
	"github.com/vk/exrun/internal/dag"
	"github.com/vk/exrun/internal/executor"
	"github.com/vk/exrun/internal/fsutil"
	"github.com/vk/exrun/internal/manifest"
	"github.com/vk/exrun/internal/pathfinder"
	"github.com/vk/exrun/internal/report"
	"github.com/vk/exrun/internal/telemetry"
)

// Run scans the source tree, orders every command block and executes the
// blocks one by one. Structural problems (parse errors, missing programs,
// cycles) are returned before anything executes. Block failures are
// reported and, unless KeepGoingExitZero is set, turned into ErrBlocksFailed.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	ctx = ctxlog.With(ctxlog.WithLogger(ctx, a.logger), "run_id", runID)
	a.ctx = ctx
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.")

	shutdown, err := telemetry.Setup(ctx, a.settings.OTelEndpoint, Version)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("Telemetry shutdown failed.", "error", err)
		}
	}()

	if err := a.healthCheckServer(); err != nil {
		return err
	}
	defer a.closeHealthCheckServer()

	finder, err := pathfinder.New(pathfinder.Options{
		ExecDir:    a.settings.ExecDir,
		OutputRoot: a.settings.OutputDir,
		SearchDirs: a.settings.SearchPaths,
	})
	if err != nil {
		return err
	}

	order, graph, err := a.plan(ctx, finder)
	if err != nil {
		return err
	}

	if a.config.DryRun {
		logger.Info("Dry run, printing the execution order.", "blocks", len(order))
		for _, b := range order {
			cl, _ := b.CommandLine(finder)
			fmt.Fprintln(a.outW, cl.String())
		}
		return nil
	}

	observers := []executor.Observer{report.LogObserver{}, a.metrics}
	if a.settings.SocketIOURL != "" {
		sink, err := report.DialSocketIO(ctx, a.settings.SocketIOURL, runID)
		if err != nil {
			// Live reporting is optional; the run goes on without it.
			logger.Warn("Socket.IO reporting disabled.", "url", a.settings.SocketIOURL, "error", err)
		} else {
			defer sink.Close()
			observers = append(observers, sink)
		}
	}

	logger.Info("🚀 Starting sequential execution...", "blocks", len(order))
	exec := executor.New(finder, a.runner, executor.Options{
		BlockTimeout: a.settings.BlockTimeout,
		RunID:        runID,
		Observers:    observers,
	})
	summary := exec.Run(ctx, order, graph)
	logger.Info("🏁 Execution finished.", "duration", summary.Finished.Sub(summary.Started))

	manifest.Audit(ctx, order)
	if a.settings.Manifest {
		path, err := manifest.WriteFile(ctx, a.settings.OutputDir, finder.ArtifactDir(), order)
		if err != nil {
			return fmt.Errorf("failed to write dependency manifest: %w", err)
		}
		logger.Info("Dependency manifest written.", "path", path)
	}
	if a.settings.ReportPath != "" {
		if err := report.WriteYAMLFile(a.settings.ReportPath, summary); err != nil {
			return fmt.Errorf("failed to write run report: %w", err)
		}
		logger.Info("Run report written.", "path", a.settings.ReportPath)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	if !summary.OK() && !a.config.KeepGoingExitZero {
		return fmt.Errorf("%w: %d of %d", ErrBlocksFailed, len(summary.Failed()), len(summary.Outcomes))
	}

	logger.Debug("App.Run method finished.")
	return nil
}

// plan loads and parses every source, links the blocks and sorts them.
func (a *App) plan(ctx context.Context, finder *pathfinder.Finder) ([]*block.Block, *dag.Graph, error) {
	logger := ctxlog.FromContext(ctx)

	sources, err := fsutil.LoadSources(ctx, a.settings.SourceDir, a.settings.Extension, a.settings.SkipDirs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sources: %w", err)
	}
	logger.Debug("Sources loaded.", "count", len(sources))

	blocks, err := block.NewParser(finder, a.settings.Strict).ParseAll(ctx, sources)
	if err != nil {
		return nil, nil, err
	}
	if len(blocks) == 0 {
		logger.Warn("No command blocks found, execution not required.", "source_dir", a.settings.SourceDir)
	}

	graph, err := dag.Build(ctx, blocks)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	logger.Debug("Dependency graph built.", "blocks", graph.Len(), "artifacts", graph.Artifacts().Len())

	order, err := graph.Sort(ctx)
	if err != nil {
		return nil, nil, err
	}
	return order, graph, nil
}
