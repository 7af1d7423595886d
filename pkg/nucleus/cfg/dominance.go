package cfg

import "github.com/mamba-lang/mamba/pkg/nucleus/ir"

const noIdom = ir.BlockID(-1)

// computeDominators runs the Cooper-Harvey-Kennedy iterative
// dominance algorithm over the blocks in rpo (reverse postorder from
// the entry), returning each block's immediate dominator. The entry
// block is its own immediate dominator, by convention.
func computeDominators(rpo []ir.BlockID, preds map[ir.BlockID][]ir.BlockID) map[ir.BlockID]ir.BlockID {
	if len(rpo) == 0 {
		return map[ir.BlockID]ir.BlockID{}
	}

	rpoIndex := make(map[ir.BlockID]int, len(rpo))
	for i, id := range rpo {
		rpoIndex[id] = i
	}

	entry := rpo[0]
	idom := make(map[ir.BlockID]ir.BlockID, len(rpo))
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom ir.BlockID = noIdom
			for _, p := range preds[b] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == noIdom {
					newIdom = p
					continue
				}
				newIdom = intersect(newIdom, p, idom, rpoIndex)
			}
			if newIdom != noIdom && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func intersect(a, b ir.BlockID, idom map[ir.BlockID]ir.BlockID, rpoIndex map[ir.BlockID]int) ir.BlockID {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

// IDom returns the immediate dominator of block id, or id itself if id
// is the entry block. Reports ok=false if id is unreachable.
func (g *Graph) IDom(id ir.BlockID) (ir.BlockID, bool) {
	d, ok := g.idom[id]
	return d, ok
}

// Dominates reports whether a dominates b (every path from the entry
// to b passes through a). A block always dominates itself.
func (g *Graph) Dominates(a, b ir.BlockID) bool {
	if a == b {
		return true
	}
	cur, ok := g.idom[b]
	if !ok {
		return false
	}
	for {
		if cur == a {
			return true
		}
		next, ok := g.idom[cur]
		if !ok || next == cur {
			return cur == a
		}
		cur = next
	}
}

// DominanceFrontier returns the dominance frontier of block id: every
// block b such that id dominates a predecessor of b but does not
// strictly dominate b itself.
func (g *Graph) DominanceFrontier(id ir.BlockID) []ir.BlockID {
	var frontier []ir.BlockID
	seen := map[ir.BlockID]bool{}
	for b := range g.preds {
		for _, p := range g.preds[b] {
			if g.Dominates(id, p) && !g.strictlyDominates(id, b) {
				if !seen[b] {
					seen[b] = true
					frontier = append(frontier, b)
				}
			}
		}
	}
	return frontier
}

func (g *Graph) strictlyDominates(a, b ir.BlockID) bool {
	return a != b && g.Dominates(a, b)
}
