package ir

import "github.com/hassan/brilopt/internal/bril"

// Linearize rebuilds a flat Bril program from the blocks of every function.
func (p *Program) Linearize() *bril.Program {
	out := &bril.Program{Functions: make([]*bril.Function, 0, len(p.Funcs))}
	for _, f := range p.Funcs {
		out.Functions = append(out.Functions, f.Linearize())
	}
	return out
}

// Linearize flattens the live blocks of f back into a Bril function.
//
// Each live block contributes its leading label (if any) followed by its
// instructions, with no-op tombstones skipped. Dead blocks are dropped along
// with their labels. Block order is preserved. f is not modified.
func (f *Func) Linearize() *bril.Function {
	fn := f.Function.CloneHeader()
	fn.Instrs = make([]bril.Code, 0)

	for _, block := range f.Blocks {
		if !block.Live {
			continue
		}

		if block.LabelInstr != nil {
			fn.Instrs = append(fn.Instrs, block.LabelInstr)
		}

		for _, instr := range block.Instructions {
			if bril.IsNop(instr) {
				continue
			}
			fn.Instrs = append(fn.Instrs, instr)
		}
	}

	return fn
}
