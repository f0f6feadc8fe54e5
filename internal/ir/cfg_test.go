package ir

import (
	"testing"

	"github.com/nikandfor/errors"

	"github.com/hassan/brilopt/internal/bril"
)

func TestBuildCFG(t *testing.T) {
	tests := []struct {
		name string
		fn   *bril.Function
		out  [][]int
		in   [][]int
	}{
		{
			name: "straight line has no edges",
			fn:   function("main", constInt("a", 1), printv("a")),
			out:  [][]int{{}},
			in:   [][]int{{}},
		},
		{
			name: "branch has one edge per label",
			fn: function("main",
				constInt("c", 1),
				br("c", "then", "else"),
				label("then"),
				printv("c"),
				label("else"),
				ret(),
			),
			out: [][]int{{1, 2}, {2}, {}},
			in:  [][]int{{}, {0}, {0, 1}},
		},
		{
			name: "loop back edge",
			fn: function("main",
				constInt("i", 0),
				label("loop"),
				constInt("one", 1),
				binop(bril.OpAdd, "i", "i", "one"),
				binop(bril.OpLt, "c", "i", "one"),
				br("c", "loop", "done"),
				label("done"),
				printv("i"),
			),
			out: [][]int{{1}, {1, 2}, {}},
			in:  [][]int{{}, {0, 1}, {1}},
		},
		{
			name: "ret stops fallthrough",
			fn: function("main",
				ret(),
				label("after"),
				printv(),
			),
			out: [][]int{{}, {}},
			in:  [][]int{{}, {}},
		},
		{
			name: "jump to self and trailing empty block",
			fn: function("main",
				label("spin"),
				jmp("spin"),
			),
			out: [][]int{{0}, {}},
			in:  [][]int{{0}, {}},
		},
		{
			name: "empty labeled block falls through",
			fn: function("main",
				constInt("c", 1),
				br("c", "a", "b"),
				label("a"),
				label("b"),
				ret(),
			),
			out: [][]int{{1, 2}, {2}, {}},
			in:  [][]int{{}, {0}, {0, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildBlocks(tt.fn)
			if err := f.BuildCFG(); err != nil {
				t.Fatalf("BuildCFG: %v", err)
			}

			if len(f.Blocks) != len(tt.out) {
				t.Fatalf("expected %d blocks, got %v", len(tt.out), labels(f))
			}
			for i, b := range f.Blocks {
				if !equalInts(b.OutEdges, tt.out[i]) {
					t.Errorf("block %d (%s): expected out %v, got %v", i, b.Label, tt.out[i], b.OutEdges)
				}
				if !equalInts(b.InEdges, tt.in[i]) {
					t.Errorf("block %d (%s): expected in %v, got %v", i, b.Label, tt.in[i], b.InEdges)
				}
			}
			checkEdgeSymmetry(t, f)
		})
	}
}

func checkEdgeSymmetry(t *testing.T, f *Func) {
	t.Helper()

	for s, b := range f.Blocks {
		for _, succ := range b.OutEdges {
			if !f.Blocks[succ].InEdges.Contains(s) {
				t.Errorf("edge %d->%d missing from in edges of %d", s, succ, succ)
			}
		}
		for _, pred := range b.InEdges {
			if !f.Blocks[pred].OutEdges.Contains(s) {
				t.Errorf("edge %d->%d missing from out edges of %d", pred, s, pred)
			}
		}
	}
}

func TestBuildCFGErrors(t *testing.T) {
	f := BuildBlocks(function("main", jmp("nowhere")))
	if err := f.BuildCFG(); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}

	f = BuildBlocks(function("main", label("x"), printv(), label("x"), ret()))
	if err := f.BuildCFG(); !errors.Is(err, ErrDuplicateLabel) {
		t.Errorf("expected ErrDuplicateLabel, got %v", err)
	}

	p := NewProgram(&bril.Program{Functions: []*bril.Function{
		function("ok", ret()),
		function("bad", br("c", "t", "f")),
	}})
	if err := p.BuildCFG(); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel from program, got %v", err)
	}
}

func TestBuildCFGEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for function without blocks")
		}
	}()

	f := &Func{Function: function("main")}
	_ = f.BuildCFG()
}

func TestLiveEdgeCounts(t *testing.T) {
	f := BuildBlocks(function("main",
		constInt("c", 1),
		br("c", "a", "b"),
		label("a"),
		jmp("b"),
		label("b"),
		ret(),
	))
	if err := f.BuildCFG(); err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}

	if n := f.LivePredecessors(2); n != 2 {
		t.Errorf("expected 2 live predecessors, got %d", n)
	}

	f.Blocks[1].Live = false
	if n := f.LivePredecessors(2); n != 1 {
		t.Errorf("expected 1 live predecessor, got %d", n)
	}
	if n := f.LiveSuccessors(0); n != 1 {
		t.Errorf("expected 1 live successor, got %d", n)
	}
}

func TestTerminator(t *testing.T) {
	tests := []struct {
		name  string
		instr []bril.Instruction
		want  bril.EffectOp
	}{
		{"empty block", nil, ""},
		{"value last", []bril.Instruction{constInt("a", 1)}, ""},
		{"print last", []bril.Instruction{printv("a")}, ""},
		{"jmp", []bril.Instruction{constInt("a", 1), jmp("x")}, bril.OpJump},
		{"br", []bril.Instruction{br("c", "x", "y")}, bril.OpBranch},
		{"ret", []bril.Instruction{ret()}, bril.OpReturn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBasicBlock("b")
			for _, instr := range tt.instr {
				b.AddInstruction(instr)
			}

			term := b.Terminator()
			if tt.want == "" {
				if term != nil || b.IsTerminated() {
					t.Errorf("expected no terminator, got %v", term)
				}
				return
			}

			if !b.IsTerminated() || term == nil || term.Op != tt.want {
				t.Errorf("expected %v terminator, got %v", tt.want, term)
			}
		})
	}
}

func TestBuildCFGReturnWithLabelsHasNoEdges(t *testing.T) {
	f := BuildBlocks(function("main",
		&bril.Effect{Op: bril.OpReturn, Labels: []string{"next"}},
		label("next"),
		ret(),
	))
	if err := f.BuildCFG(); err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}

	if f.Blocks[0].OutEdges.Len() != 0 || f.Blocks[1].InEdges.Len() != 0 {
		t.Errorf("expected ret to record no edges, got out %v in %v", f.Blocks[0].OutEdges, f.Blocks[1].InEdges)
	}
}
