package optimizer

import "github.com/hassan/brilopt/internal/ir"

// RemoveUnreachableBlocks marks every non-entry block without a live
// predecessor as dead, until no more blocks die. Returns the number of
// blocks marked dead.
//
// EXAMPLE:
//
//	entry -> ret        A (no preds) -> B -> C
//
// The first sweep kills A. B's only predecessor is now dead so B dies as
// well, then C. Predecessors are counted against the current Live flags on
// every sweep, which is what makes the chain collapse.
//
// The entry block (index 0) is always reachable. Instructions are not
// touched.
func RemoveUnreachableBlocks(fn *ir.Func) int {
	removed := 0

	for changed := true; changed; {
		changed = false

		for i, block := range fn.Blocks {
			if i == 0 || !block.Live {
				continue
			}

			if fn.LivePredecessors(i) == 0 {
				block.Live = false
				removed++
				changed = true
			}
		}
	}

	return removed
}
