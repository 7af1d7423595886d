package ir

import "github.com/samber/lo"

// BlocksWithOp returns every block in fn containing at least one
// instruction with the given opcode — the query cmd/ir's "blocks"
// command uses to list call sites or phi nodes without a second walk.
func BlocksWithOp(fn *Function, op Op) []*Block {
	indices := lo.Filter(lo.Range(len(fn.Blocks)), func(i int, _ int) bool {
		return lo.ContainsBy(fn.Blocks[i].Insts, func(inst Instruction) bool { return inst.Op == op })
	})
	return lo.Map(indices, func(i int, _ int) *Block { return &fn.Blocks[i] })
}

// CallTargets returns the distinct callee names referenced anywhere in fn.
func CallTargets(fn *Function) []string {
	var calls []string
	for _, blk := range fn.Blocks {
		for _, inst := range blk.Insts {
			if inst.Op == OpCall {
				calls = append(calls, inst.Callee)
			}
		}
	}
	return lo.Uniq(calls)
}
