package executor

import (
	"errors"
	"fmt"

	"github.com/vk/exrun/internal/block"
)

// ErrMissingInput is matched by every *MissingInputError.
var ErrMissingInput = errors.New("missing input")

// MissingInputError reports an input that is not on disk and that no block
// produces. It is recorded as a warning; the block still runs.
type MissingInputError struct {
	Block block.ID
	Input string
	Path  string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: input %q not found at %s and no block produces it", e.Block, e.Input, e.Path)
}

func (e *MissingInputError) Unwrap() error { return ErrMissingInput }

// GeneratedInputWarning reports an input that is not on disk yet but is
// declared as the output of another block.
type GeneratedInputWarning struct {
	Block    block.ID
	Input    string
	Path     string
	Producer block.ID
}

func (w *GeneratedInputWarning) Error() string {
	return fmt.Sprintf("%s: input %q not found, assuming it is autogenerated by %s", w.Block, w.Input, w.Producer)
}
