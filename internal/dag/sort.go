package dag

import (
	"context"

	"github.com/vk/exrun/internal/block"
	"github.com/vk/exrun/internal/ctxlog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Sort returns the blocks ordered so that every producer precedes all of its
// consumers. Ties keep insertion order. The graph itself is not modified, so
// Sort may be called more than once.
//
// Blocks are taken from the front of a queue. A block that still waits on an
// unplaced producer goes to the back; otherwise it is placed and its
// consumers wait on one producer less. A full pass over the queue without
// placing anything means the remaining blocks form or depend on a cycle.
func (g *Graph) Sort(ctx context.Context) ([]*block.Block, error) {
	_, span := tracer.Start(ctx, "dag.Sort")
	defer span.End()

	logger := ctxlog.FromContext(ctx)

	remaining := make([]int, len(g.blocks))
	queue := make([]int, len(g.blocks))
	for i := range g.blocks {
		remaining[i] = len(g.children[i])
		queue[i] = i
	}

	order := make([]*block.Block, 0, len(g.blocks))
	stalled := 0
	for len(queue) > 0 {
		if stalled >= len(queue) {
			err := g.cycleError(queue)
			span.RecordError(err)
			span.SetStatus(codes.Error, "cycle")
			logger.Debug("Sort: No progress over a full pass.", "remaining", len(queue))
			return nil, err
		}

		i := queue[0]
		queue = queue[1:]
		if remaining[i] > 0 {
			queue = append(queue, i)
			stalled++
			continue
		}

		stalled = 0
		order = append(order, g.blocks[i])
		for _, p := range g.parents[i] {
			remaining[p]--
		}
	}

	span.SetAttributes(attribute.Int("dag.ordered", len(order)))
	logger.Debug("Sort: Order complete.", "blocks", len(order))
	return order, nil
}

func (g *Graph) cycleError(queue []int) *CycleError {
	unplaced := make([]bool, len(g.blocks))
	for _, i := range queue {
		unplaced[i] = true
	}

	err := &CycleError{}
	for i, b := range g.blocks {
		if unplaced[i] {
			err.Remaining = append(err.Remaining, b.ID())
		}
	}
	for _, i := range g.findCycle(unplaced) {
		err.Cycle = append(err.Cycle, g.blocks[i].ID())
	}
	return err
}

// findCycle runs a DFS in insertion order over the unplaced blocks and
// returns one closed path along dependency edges, or nil.
func (g *Graph) findCycle(unplaced []bool) []int {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.blocks))
	parent := make([]int, len(g.blocks))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, v := range g.children[u] {
			if !unplaced[v] {
				continue
			}
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back edge u -> v closes the path v -> ... -> u -> v.
				var path []int
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					path = append(path, cur)
				}
				cycle = append(cycle, v)
				for k := len(path) - 1; k >= 0; k-- {
					cycle = append(cycle, path[k])
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range g.blocks {
		if unplaced[i] && color[i] == white && dfs(i) {
			break
		}
	}
	return cycle
}
