// Package report turns executor outcomes into logs, a YAML run report and
// live socket.io events.
package report

import (
	"time"

	"github.com/vk/exrun/internal/executor"
)

// BlockRecord is the serializable form of one executor.Outcome.
type BlockRecord struct {
	ID       string   `json:"id" yaml:"id"`
	Program  string   `json:"program" yaml:"program"`
	Command  string   `json:"command,omitempty" yaml:"command,omitempty"`
	Inputs   []string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Status   string   `json:"status" yaml:"status"`
	ExitCode int      `json:"exit_code" yaml:"exit_code"`
	Signal   string   `json:"signal,omitempty" yaml:"signal,omitempty"`
	Error    string   `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	Started         time.Time `json:"started" yaml:"started"`
	DurationSeconds float64   `json:"duration_seconds" yaml:"duration_seconds"`
}

// RunRecord is the serializable form of an executor.Summary.
type RunRecord struct {
	RunID    string         `json:"run_id" yaml:"run_id"`
	Started  time.Time      `json:"started" yaml:"started"`
	Finished time.Time      `json:"finished" yaml:"finished"`
	OK       bool           `json:"ok" yaml:"ok"`
	Counts   map[string]int `json:"counts" yaml:"counts"`
	Failed   []string       `json:"failed,omitempty" yaml:"failed,omitempty"`
	Blocks   []BlockRecord  `json:"blocks" yaml:"blocks"`
}

// NewBlockRecord converts an outcome.
func NewBlockRecord(o *executor.Outcome) BlockRecord {
	r := BlockRecord{
		ID:              o.Block.ID().String(),
		Program:         o.Block.ProgramName,
		Inputs:          o.Block.InputPaths(),
		Outputs:         o.Block.Outputs,
		Status:          string(o.Status),
		ExitCode:        o.ExitCode,
		Signal:          o.Signal,
		Started:         o.Started,
		DurationSeconds: o.Duration.Seconds(),
	}
	if o.CommandLine.Program != "" {
		r.Command = o.CommandLine.String()
	}
	if o.Err != nil {
		r.Error = o.Err.Error()
	}
	for _, w := range o.Warnings {
		r.Warnings = append(r.Warnings, w.Error())
	}
	return r
}

// NewRunRecord converts a summary.
func NewRunRecord(s *executor.Summary) RunRecord {
	r := RunRecord{
		RunID:    s.RunID,
		Started:  s.Started,
		Finished: s.Finished,
		OK:       s.OK(),
		Counts:   make(map[string]int),
		Blocks:   make([]BlockRecord, 0, len(s.Outcomes)),
	}
	for status, n := range s.Counts() {
		r.Counts[string(status)] = n
	}
	for _, o := range s.Outcomes {
		r.Blocks = append(r.Blocks, NewBlockRecord(o))
		if o.Status.Failed() {
			r.Failed = append(r.Failed, o.Block.ID().String())
		}
	}
	return r
}
