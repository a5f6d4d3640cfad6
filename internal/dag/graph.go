package dag

import (
	"github.com/vk/exrun/internal/block"
)

// ArtifactIndex maps an output path to the block that produces it. It is
// created per Build call and never shared between runs.
type ArtifactIndex struct {
	producers map[string]*block.Block
}

func newArtifactIndex() *ArtifactIndex {
	return &ArtifactIndex{producers: make(map[string]*block.Block)}
}

// Producer returns the block declaring path as an output.
func (x *ArtifactIndex) Producer(path string) (*block.Block, bool) {
	if x == nil {
		return nil, false
	}
	b, ok := x.producers[path]
	return b, ok
}

// Len returns the number of indexed outputs.
func (x *ArtifactIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.producers)
}

// Graph is the dependency graph over a run's blocks.
//
// children[i] holds the producers block i consumes from; parents[i] holds the
// consumers of block i's outputs. Both are deduplicated and kept in insertion
// order. A Graph is not safe for concurrent mutation; after Build it is
// read-only.
type Graph struct {
	blocks   []*block.Block
	index    map[block.ID]int
	children [][]int
	parents  [][]int

	artifacts *ArtifactIndex
}

// Len returns the number of blocks in the graph.
func (g *Graph) Len() int { return len(g.blocks) }

// Blocks returns every block in insertion order.
func (g *Graph) Blocks() []*block.Block {
	out := make([]*block.Block, len(g.blocks))
	copy(out, g.blocks)
	return out
}

// Block returns the block with the given ID.
func (g *Graph) Block(id block.ID) (*block.Block, bool) {
	i, ok := g.index[id]
	if !ok {
		return nil, false
	}
	return g.blocks[i], true
}

// Artifacts returns the output index built alongside the graph.
func (g *Graph) Artifacts() *ArtifactIndex { return g.artifacts }

// Producer implements the executor's artifact lookup.
func (g *Graph) Producer(path string) (*block.Block, bool) {
	return g.artifacts.Producer(path)
}

// Dependencies returns the blocks the given block consumes outputs from.
func (g *Graph) Dependencies(id block.ID) []*block.Block {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.lookup(g.children[i])
}

// Dependents returns the blocks consuming the given block's outputs.
func (g *Graph) Dependents(id block.ID) []*block.Block {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.lookup(g.parents[i])
}

func (g *Graph) lookup(indices []int) []*block.Block {
	out := make([]*block.Block, len(indices))
	for k, i := range indices {
		out[k] = g.blocks[i]
	}
	return out
}

// link records that block from consumes an output of block to. It reports
// whether the edge is new.
func (g *Graph) link(from, to int) bool {
	for _, c := range g.children[from] {
		if c == to {
			return false
		}
	}
	g.children[from] = append(g.children[from], to)
	g.parents[to] = append(g.parents[to], from)
	return true
}
