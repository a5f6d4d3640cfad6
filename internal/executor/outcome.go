package executor

import (
	"time"

	"github.com/vk/exrun/internal/block"
)

// Status classifies how a block's execution ended.
type Status string

const (
	StatusSucceeded      Status = "succeeded"
	StatusFailedExit     Status = "failed-exit"
	StatusFailedSignal   Status = "failed-signal"
	StatusExecutionError Status = "execution-error"
	StatusTimedOut       Status = "timed-out"
	// StatusSkipped marks blocks never started because the run was cancelled.
	StatusSkipped Status = "skipped"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{
	StatusSucceeded,
	StatusFailedExit,
	StatusFailedSignal,
	StatusExecutionError,
	StatusTimedOut,
	StatusSkipped,
}

// Failed reports whether the status counts against the run.
func (s Status) Failed() bool { return s != StatusSucceeded }

// Outcome is the record of one block's execution.
type Outcome struct {
	Block       *block.Block
	CommandLine block.CommandLine
	Status      Status

	// ExitCode is the process exit code for succeeded and failed-exit.
	ExitCode int
	// Signal names the terminating signal for failed-signal.
	Signal string
	// Err is the launch error, timeout or cancellation cause, if any.
	Err error

	Started  time.Time
	Duration time.Duration

	// Warnings are non-fatal diagnostics found before the block ran, such as
	// *MissingInputError.
	Warnings []error
}

// Summary collects the outcomes of one run in execution order.
type Summary struct {
	RunID    string
	Outcomes []*Outcome
	Started  time.Time
	Finished time.Time
}

// Failed returns the outcomes whose status counts against the run.
func (s *Summary) Failed() []*Outcome {
	var out []*Outcome
	for _, o := range s.Outcomes {
		if o.Status.Failed() {
			out = append(out, o)
		}
	}
	return out
}

// OK reports whether every block succeeded.
func (s *Summary) OK() bool { return len(s.Failed()) == 0 }

// Counts returns the number of outcomes per status.
func (s *Summary) Counts() map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, o := range s.Outcomes {
		counts[o.Status]++
	}
	return counts
}
