package dag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/exrun/internal/block"
)

var (
	// ErrCycleDetected is matched by every *CycleError.
	ErrCycleDetected = errors.New("dependency cycle detected")
	// ErrDuplicateBlock is returned by Build when two blocks share an ID.
	ErrDuplicateBlock = errors.New("duplicate block")
)

// CycleError reports that no order satisfies every dependency.
type CycleError struct {
	// Cycle is one closed path of blocks, first and last element equal.
	Cycle []block.ID
	// Remaining are all blocks that could not be ordered, in insertion order.
	Remaining []block.ID
}

func (e *CycleError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrCycleDetected.Error())
	if len(e.Cycle) > 0 {
		parts := make([]string, len(e.Cycle))
		for i, id := range e.Cycle {
			parts[i] = id.String()
		}
		sb.WriteString(": ")
		sb.WriteString(strings.Join(parts, " -> "))
	}
	fmt.Fprintf(&sb, " (%d blocks cannot be ordered)", len(e.Remaining))
	return sb.String()
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }
