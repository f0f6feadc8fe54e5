package optimizer

import (
	"testing"

	"github.com/hassan/brilopt/internal/bril"
	"github.com/hassan/brilopt/internal/ir"
)

func label(name string) *bril.Label { return &bril.Label{Label: name} }

func constInt(dest string, v int64) *bril.Constant {
	return &bril.Constant{Dest: dest, Type: bril.Int, Value: bril.IntLit(v)}
}

func binop(op bril.ValueOp, dest, a, b string) *bril.Value {
	return &bril.Value{Op: op, Dest: dest, Type: bril.Int, Args: []string{a, b}}
}

func id(dest, src string) *bril.Value {
	return &bril.Value{Op: bril.OpID, Dest: dest, Type: bril.Int, Args: []string{src}}
}

func call(dest, fn string, args ...string) *bril.Value {
	return &bril.Value{Op: bril.OpCall, Dest: dest, Type: bril.Int, Funcs: []string{fn}, Args: args}
}

func printv(args ...string) *bril.Effect {
	return &bril.Effect{Op: bril.OpPrint, Args: args}
}

func jmp(target string) *bril.Effect {
	return &bril.Effect{Op: bril.OpJump, Labels: []string{target}}
}

func br(cond, t, f string) *bril.Effect {
	return &bril.Effect{Op: bril.OpBranch, Args: []string{cond}, Labels: []string{t, f}}
}

func ret(args ...string) *bril.Effect {
	return &bril.Effect{Op: bril.OpReturn, Args: args}
}

// build splits code into blocks and computes the CFG.
func build(t *testing.T, code ...bril.Code) *ir.Func {
	t.Helper()

	f := ir.BuildBlocks(&bril.Function{Name: "main", Instrs: code})
	if err := f.BuildCFG(); err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	return f
}

// body returns the linearized function as text, one item per line.
func body(f *ir.Func) []string {
	out := f.Linearize()
	lines := make([]string, len(out.Instrs))
	for i, c := range out.Instrs {
		lines[i] = c.String()
	}
	return lines
}

func expectBody(t *testing.T, f *ir.Func, want ...string) {
	t.Helper()

	got := body(f)
	if len(got) != len(want) {
		t.Fatalf("expected body:\n%q\ngot:\n%q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func liveFlags(f *ir.Func) []bool {
	out := make([]bool, len(f.Blocks))
	for i, b := range f.Blocks {
		out[i] = b.Live
	}
	return out
}
