package ir

import (
	"github.com/nikandfor/errors"

	"github.com/hassan/brilopt/internal/bril"
)

var (
	ErrUnknownLabel   = errors.New("unknown label")
	ErrDuplicateLabel = errors.New("duplicate label")
)

// BuildCFG computes the edges of every function in the program.
func (p *Program) BuildCFG() error {
	for _, f := range p.Funcs {
		if err := f.BuildCFG(); err != nil {
			return errors.Wrap(err, "func %v", f.Name())
		}
	}
	return nil
}

// BuildCFG populates InEdges and OutEdges of every block from the last
// instruction of each block.
//
// EDGES BY LAST INSTRUCTION:
//   - const or value: fall through to the next block
//   - jmp, br: one edge per target label, none to the next block
//   - ret: no edge
//   - any other effect: fall through to the next block
//   - empty block: fall through to the next block
//
// An empty block is not a dead end: it falls through like any other block
// without a terminator, so a label followed directly by another label
// still reaches it.
//
// A fallthrough from the last block falls off the end of the function and
// records no edge.
//
// Block membership and instructions are not changed.
func (f *Func) BuildCFG() error {
	if len(f.Blocks) == 0 {
		panic("BUG: BuildCFG on function without blocks")
	}

	labels := make(map[string]int, len(f.Blocks))
	for i, block := range f.Blocks {
		if _, ok := labels[block.Label]; ok {
			return errors.Wrap(ErrDuplicateLabel, "%v", block.Label)
		}
		labels[block.Label] = i
	}

	for i, block := range f.Blocks {
		if !block.IsTerminated() {
			if i+1 < len(f.Blocks) {
				f.AddEdge(i, i+1)
			}
			continue
		}

		term := block.Terminator()
		if term.Op == bril.OpReturn {
			continue
		}

		for _, l := range term.Labels {
			target, ok := labels[l]
			if !ok {
				return errors.Wrap(ErrUnknownLabel, "%v: %v", block.Label, l)
			}
			f.AddEdge(i, target)
		}
	}

	return nil
}
