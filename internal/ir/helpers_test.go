package ir

import "github.com/hassan/brilopt/internal/bril"

func label(name string) *bril.Label { return &bril.Label{Label: name} }

func constInt(dest string, v int64) *bril.Constant {
	return &bril.Constant{Dest: dest, Type: bril.Int, Value: bril.IntLit(v)}
}

func binop(op bril.ValueOp, dest, a, b string) *bril.Value {
	return &bril.Value{Op: op, Dest: dest, Type: bril.Int, Args: []string{a, b}}
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

func function(name string, code ...bril.Code) *bril.Function {
	return &bril.Function{Name: name, Instrs: code}
}

func labels(f *Func) []string {
	out := make([]string, len(f.Blocks))
	for i, b := range f.Blocks {
		out[i] = b.Label
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
