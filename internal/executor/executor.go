// Package executor runs ordered command blocks one at a time and records how
// each one ended. A failing block never stops the run; the caller decides
// what a failed Summary means.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/exrun/internal/block"
	"github.com/vk/exrun/internal/ctxlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("exrun.executor")

// ArtifactLookup finds the block producing an output path.
type ArtifactLookup interface {
	Producer(path string) (*block.Block, bool)
}

// Observer is notified as the run progresses. Calls happen on the executing
// goroutine, in order.
type Observer interface {
	BlockFinished(ctx context.Context, o *Outcome)
	RunFinished(ctx context.Context, s *Summary)
}

// Options tune an Executor.
type Options struct {
	// BlockTimeout bounds each process; zero means no limit.
	BlockTimeout time.Duration
	// RunID is stamped on the Summary.
	RunID     string
	Observers []Observer
}

// Executor runs blocks sequentially through a ProcessRunner.
type Executor struct {
	resolver block.PathResolver
	runner   ProcessRunner
	opts     Options
}

// New creates an Executor.
func New(r block.PathResolver, runner ProcessRunner, opts Options) *Executor {
	return &Executor{resolver: r, runner: runner, opts: opts}
}

// Run executes order front to back. Once ctx is done the remaining blocks
// are recorded as skipped.
func (e *Executor) Run(ctx context.Context, order []*block.Block, artifacts ArtifactLookup) *Summary {
	ctx, span := tracer.Start(ctx, "executor.Run", trace.WithAttributes(
		attribute.String("exrun.run_id", e.opts.RunID),
		attribute.Int("exrun.block_count", len(order)),
	))
	defer span.End()

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executor: Starting run.", "blocks", len(order))

	summary := &Summary{RunID: e.opts.RunID, Started: time.Now()}
	for i, b := range order {
		var o *Outcome
		if err := ctx.Err(); err != nil {
			o = &Outcome{Block: b, Status: StatusSkipped, Err: err}
		} else {
			o = e.runBlock(ctx, b, artifacts, i+1, len(order))
		}
		summary.Outcomes = append(summary.Outcomes, o)
		for _, obs := range e.opts.Observers {
			obs.BlockFinished(ctx, o)
		}
	}
	summary.Finished = time.Now()

	failed := len(summary.Failed())
	span.SetAttributes(attribute.Int("exrun.failed", failed))
	if failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d blocks failed", failed))
	}
	for _, obs := range e.opts.Observers {
		obs.RunFinished(ctx, summary)
	}
	logger.Debug("Executor: Run complete.", "blocks", len(order), "failed", failed)
	return summary
}

func (e *Executor) runBlock(ctx context.Context, b *block.Block, artifacts ArtifactLookup, n, total int) *Outcome {
	ctx = ctxlog.With(ctx, "block", b.ID().String())
	ctx, span := tracer.Start(ctx, b.ProgramName, trace.WithAttributes(
		attribute.String("exrun.block", b.ID().String()),
		attribute.String("exrun.program", b.Program),
		attribute.Int("exrun.inputs", len(b.Inputs)),
		attribute.Int("exrun.outputs", len(b.Outputs)),
	))
	defer span.End()
	logger := ctxlog.FromContext(ctx)

	cl, unresolved := b.CommandLine(e.resolver)
	o := &Outcome{Block: b, CommandLine: cl}
	for _, in := range unresolved {
		if producer, ok := artifacts.Producer(in.Path); ok {
			w := &GeneratedInputWarning{Block: b.ID(), Input: in.Name, Path: in.Path, Producer: producer.ID()}
			logger.Warn("Input not found, assuming it is autogenerated.", "input", in.Name, "path", in.Path, "producer", producer.ID().String())
			o.Warnings = append(o.Warnings, w)
			continue
		}
		w := &MissingInputError{Block: b.ID(), Input: in.Name, Path: in.Path}
		logger.Warn("Input not found and no block produces it.", "input", in.Name, "path", in.Path)
		o.Warnings = append(o.Warnings, w)
	}

	logger.Info(fmt.Sprintf("Running block %d of %d.", n, total), "command", cl.String())

	runCtx := ctx
	if e.opts.BlockTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.BlockTimeout)
		defer cancel()
	}

	o.Started = time.Now()
	res, err := e.runner.Run(runCtx, cl)
	o.Duration = time.Since(o.Started)
	e.classify(ctx, runCtx, o, res, err)

	span.SetAttributes(attribute.String("exrun.status", string(o.Status)))
	if o.Status.Failed() {
		span.SetStatus(codes.Error, string(o.Status))
		if o.Err != nil {
			span.RecordError(o.Err)
		}
		logger.Error("Block failed.", "status", o.Status, "exit_code", o.ExitCode, "signal", o.Signal, "error", o.Err, "duration", o.Duration)
	} else {
		logger.Debug("Block succeeded.", "duration", o.Duration)
	}
	return o
}

// classify fills in the status. A deadline on runCtx that the parent does
// not share is a block timeout; a done parent is a cancelled run. Either is
// only blamed when the runner failed or the process was killed: a process
// that exited on its own keeps its exit status.
func (e *Executor) classify(ctx, runCtx context.Context, o *Outcome, res ProcessResult, err error) {
	interrupted := err != nil || res.Signaled
	switch {
	case interrupted && ctx.Err() != nil:
		o.Status = StatusExecutionError
		o.Err = fmt.Errorf("run cancelled: %w", ctx.Err())
	case interrupted && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		o.Status = StatusTimedOut
		o.Err = fmt.Errorf("block exceeded timeout of %s: %w", e.opts.BlockTimeout, runCtx.Err())
	case err != nil:
		o.Status = StatusExecutionError
		o.Err = err
	case res.Signaled:
		o.Status = StatusFailedSignal
		o.Signal = res.Signal
		o.ExitCode = res.ExitCode
	case res.ExitCode != 0:
		o.Status = StatusFailedExit
		o.ExitCode = res.ExitCode
	default:
		o.Status = StatusSucceeded
	}
}
