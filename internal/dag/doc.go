// Package dag links command blocks into a dependency graph and orders them.
//
// A block depends on another block when one of its inputs is an output the
// other declares. Build creates the graph from blocks in source order, and
// Sort returns an order in which every producer precedes its consumers, or a
// *CycleError when no such order exists.
//
// The graph is an arena: blocks are stored once, in insertion order, and all
// edges are integer indices into that arena.
package dag
