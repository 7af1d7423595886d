// Package cfg derives control-flow graphs and dominator trees from the
// ir package's Block/Instruction data.
//
// No part of the source corpus models a compiler's control-flow graph
// (the CPU backend it's built from runs a fixed linear instruction
// stream), so this package has no direct grounding file; it follows
// the standard
// Cooper-Harvey-Kennedy "A Simple, Fast Dominance Algorithm" iterative
// dataflow formulation, cited in DESIGN.md as the stdlib-only
// component of the nucleus.
package cfg

import "github.com/mamba-lang/mamba/pkg/nucleus/ir"

// Graph is the CFG for one function: predecessor/successor edges
// derived from each block's terminator, plus the cached dominator
// tree built on top of it.
type Graph struct {
	fn    *ir.Function
	preds map[ir.BlockID][]ir.BlockID
	succs map[ir.BlockID][]ir.BlockID
	order []ir.BlockID // reverse postorder from the entry block

	idom map[ir.BlockID]ir.BlockID
}

// Build derives the CFG for fn from its current instructions. It is
// always a fresh computation: callers that want caching should store
// the returned Graph themselves and rebuild only when fn.Dirty().
func Build(fn *ir.Function) *Graph {
	g := &Graph{
		fn:    fn,
		preds: make(map[ir.BlockID][]ir.BlockID, len(fn.Blocks)),
		succs: make(map[ir.BlockID][]ir.BlockID, len(fn.Blocks)),
	}

	for i := range fn.Blocks {
		id := ir.BlockID(i)
		g.succs[id] = successorsOf(fn, id)
	}
	for from, tos := range g.succs {
		for _, to := range tos {
			g.preds[to] = append(g.preds[to], from)
		}
	}

	g.order = reversePostorder(fn, g.succs)
	g.idom = computeDominators(g.order, g.preds)

	fn.ClearDirty()
	return g
}

func successorsOf(fn *ir.Function, id ir.BlockID) []ir.BlockID {
	blk := fn.Block(id)
	term := blk.Terminator()
	if term == nil {
		return nil
	}
	out := make([]ir.BlockID, len(term.Targets))
	copy(out, term.Targets)
	return out
}

// Preds returns the direct predecessors of block id.
func (g *Graph) Preds(id ir.BlockID) []ir.BlockID { return g.preds[id] }

// Succs returns the direct successors of block id.
func (g *Graph) Succs(id ir.BlockID) []ir.BlockID { return g.succs[id] }

// ReversePostorder returns the blocks reachable from the entry block,
// in reverse-postorder.
func (g *Graph) ReversePostorder() []ir.BlockID { return g.order }

func reversePostorder(fn *ir.Function, succs map[ir.BlockID][]ir.BlockID) []ir.BlockID {
	visited := make(map[ir.BlockID]bool, len(fn.Blocks))
	var postorder []ir.BlockID

	var visit func(id ir.BlockID)
	visit = func(id ir.BlockID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, s := range succs[id] {
			visit(s)
		}
		postorder = append(postorder, id)
	}
	visit(0)

	n := len(postorder)
	rpo := make([]ir.BlockID, n)
	for i, id := range postorder {
		rpo[n-1-i] = id
	}
	return rpo
}
