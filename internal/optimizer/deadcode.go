package optimizer

import (
	"github.com/hassan/brilopt/internal/bril"
	"github.com/hassan/brilopt/internal/ir"
)

// position locates an instruction inside a function's block arena.
type position struct {
	block int
	instr int
}

// EliminateDeadCode removes definitions whose value is never used, across
// the live blocks of the whole function. Returns the number of
// instructions tombstoned.
//
// EXAMPLE:
//
//	Before:  a: int = const 4;   <- overwritten before any use
//	         a: int = const 5;
//	         t: int = const 1;   <- never used
//	         print a;
//	After:   a: int = const 5;
//	         print a;
//
// Dead instructions are replaced by nop in place, so positions recorded
// during a scan stay valid. The scan is repeated because tombstoning a
// definition also drops its uses, which may leave other definitions dead.
// Definitions are never removed when they may still be read: uses are
// approximated by block order only for overwrites within one block, and a
// definition left pending at the end is removed only if its name is read
// nowhere in the function.
func EliminateDeadCode(fn *ir.Func) int {
	removed := 0

	for {
		dead := findDeadDefinitions(fn)
		if len(dead) == 0 {
			return removed
		}

		for _, pos := range dead {
			fn.Blocks[pos.block].Instructions[pos.instr] = bril.Nop()
		}
		removed += len(dead)
	}
}

// findDeadDefinitions scans live blocks in order, tracking the latest
// not-yet-used definition of every variable.
//
// ALGORITHM:
// 1. Every operand consumes the pending definition of its name
// 2. A new definition replaces the pending one; the replaced definition
//    is dead if it sits in the same block (overwritten before any use)
// 3. Definitions still pending at the end are dead if their name is
//    never read by a live instruction
//
// Calls that produce a value are never reported: they run for their side
// effects even when the result is ignored.
func findDeadDefinitions(fn *ir.Func) []position {
	pending := make(map[string]position)
	used := make(map[string]bool)

	var dead []position

	for bi, block := range fn.Blocks {
		if !block.Live {
			continue
		}

		for ii, instr := range block.Instructions {
			for _, arg := range instr.Operands() {
				delete(pending, arg)
				used[arg] = true
			}

			dest := instr.Result()
			if dest == "" {
				continue
			}

			if old, ok := pending[dest]; ok && old.block == bi {
				dead = append(dead, old)
			}
			delete(pending, dest)

			if v, ok := instr.(*bril.Value); ok && v.Op.HasSideEffects() {
				continue
			}

			pending[dest] = position{block: bi, instr: ii}
		}
	}

	for name, pos := range pending {
		if !used[name] {
			dead = append(dead, pos)
		}
	}

	return dead
}
