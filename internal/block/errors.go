package block

import (
	"errors"
	"fmt"
)

var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("command block parse error")
	// ErrMissingProgram is matched by every *MissingProgramError.
	ErrMissingProgram = errors.New("required program does not exist")
)

// ParseError reports a declaration line that cannot be classified, or a
// structural problem with the block markers in strict mode.
type ParseError struct {
	Source string
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("%s:%d: %s: %q", e.Source, e.Line, e.Reason, e.Text)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// MissingProgramError is returned when the executable a block invokes cannot
// be resolved or does not exist on disk.
type MissingProgramError struct {
	Block   ID
	Program string
	Path    string
	Err     error
}

func (e *MissingProgramError) Error() string {
	msg := fmt.Sprintf("%s: required program %q does not exist", e.Block, e.Program)
	if e.Path != "" {
		msg += fmt.Sprintf(" (looked for %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingProgramError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMissingProgram}
	}
	return []error{ErrMissingProgram, e.Err}
}
