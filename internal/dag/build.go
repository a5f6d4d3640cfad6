package dag

import (
	"context"
	"fmt"

	"github.com/vk/exrun/internal/block"
	"github.com/vk/exrun/internal/ctxlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("exrun.dag")

// Build constructs the dependency graph of blocks, which must be in source
// order. Blocks sharing an ID are rejected with ErrDuplicateBlock.
func Build(ctx context.Context, blocks []*block.Block) (*Graph, error) {
	_, span := tracer.Start(ctx, "dag.Build", trace.WithAttributes(attribute.Int("dag.block_count", len(blocks))))
	defer span.End()

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "blocks", len(blocks))

	g := &Graph{
		blocks:    make([]*block.Block, 0, len(blocks)),
		index:     make(map[block.ID]int, len(blocks)),
		children:  make([][]int, len(blocks)),
		parents:   make([][]int, len(blocks)),
		artifacts: newArtifactIndex(),
	}

	// First pass: place every block in the arena.
	for _, b := range blocks {
		if _, exists := g.index[b.ID()]; exists {
			span.RecordError(ErrDuplicateBlock)
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBlock, b.ID())
		}
		g.index[b.ID()] = len(g.blocks)
		g.blocks = append(g.blocks, b)
	}

	// Second pass: index outputs. Later declarations replace earlier ones.
	for _, b := range g.blocks {
		for _, out := range b.Outputs {
			if prev, exists := g.artifacts.producers[out]; exists && prev != b {
				logger.Warn("Output declared by more than one block, the later one wins.",
					"output", out, "previous", prev.ID().String(), "block", b.ID().String())
			}
			g.artifacts.producers[out] = b
		}
	}
	logger.Debug("Build: Output indexing complete.", "outputs", g.artifacts.Len())

	// Third pass: link every consumer to the producer of each input.
	edges := 0
	for i, b := range g.blocks {
		for _, in := range b.Inputs {
			producer, ok := g.artifacts.producers[in.Path]
			if !ok {
				continue
			}
			p := g.index[producer.ID()]
			if !g.link(i, p) {
				continue
			}
			edges++
			if p == i {
				logger.Warn("Block consumes its own output.", "block", b.ID().String(), "artifact", in.Path)
				continue
			}
			logger.Debug("Linking dependency.", "from", b.ID().String(), "to", producer.ID().String(), "artifact", in.Path)
		}
	}
	span.SetAttributes(attribute.Int("dag.edge_count", edges))

	logger.Debug("Build: Graph construction successful.", "blocks", g.Len(), "edges", edges)
	return g, nil
}
