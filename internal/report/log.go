package report

import (
	"context"

	"github.com/vk/exrun/internal/ctxlog"
	"github.com/vk/exrun/internal/executor"
)

// LogObserver logs each finished block and a closing summary that names
// every failed block.
type LogObserver struct{}

// BlockFinished implements executor.Observer.
func (LogObserver) BlockFinished(ctx context.Context, o *executor.Outcome) {
	logger := ctxlog.FromContext(ctx)
	args := []any{"block", o.Block.ID().String(), "status", o.Status, "duration", o.Duration}
	switch o.Status {
	case executor.StatusSucceeded:
		logger.Info("Child returned.", append(args, "exit_code", o.ExitCode)...)
	case executor.StatusFailedSignal:
		logger.Warn("Child was terminated by signal.", append(args, "signal", o.Signal)...)
	case executor.StatusFailedExit:
		logger.Warn("Child returned.", append(args, "exit_code", o.ExitCode)...)
	case executor.StatusSkipped:
		logger.Warn("Block skipped.", args...)
	default:
		logger.Warn("Execution failed.", append(args, "error", o.Err)...)
	}
}

// RunFinished implements executor.Observer.
func (LogObserver) RunFinished(ctx context.Context, s *executor.Summary) {
	logger := ctxlog.FromContext(ctx)
	counts := s.Counts()
	args := []any{"run_id", s.RunID, "blocks", len(s.Outcomes), "elapsed", s.Finished.Sub(s.Started)}
	for _, status := range executor.Statuses {
		if n := counts[status]; n > 0 {
			args = append(args, string(status), n)
		}
	}

	failed := s.Failed()
	if len(failed) == 0 {
		logger.Info("Run complete, all blocks succeeded.", args...)
		return
	}
	logger.Error("Run complete with failures.", append(args, "failed", len(failed))...)
	for _, o := range failed {
		logger.Error("Failed block.", "block", o.Block.ID().String(), "status", o.Status, "command", o.CommandLine.String())
	}
}
