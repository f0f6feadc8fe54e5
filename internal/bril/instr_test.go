package bril

import "testing"

func TestInstructionOperands(t *testing.T) {
	tests := []struct {
		name     string
		instr    Instruction
		operands []string
		result   string
	}{
		{"constant", &Constant{Dest: "a", Type: Int, Value: IntLit(1)}, nil, "a"},
		{"value", &Value{Op: OpAdd, Dest: "c", Type: Int, Args: []string{"a", "b"}}, []string{"a", "b"}, "c"},
		{"effect", &Effect{Op: OpPrint, Args: []string{"c"}}, []string{"c"}, ""},
		{"nop", Nop(), nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.instr.Result(); got != tt.result {
				t.Errorf("expected result %q, got %q", tt.result, got)
			}
			got := tt.instr.Operands()
			if len(got) != len(tt.operands) {
				t.Fatalf("expected operands %v, got %v", tt.operands, got)
			}
			for i := range got {
				if got[i] != tt.operands[i] {
					t.Errorf("operand %d: expected %q, got %q", i, tt.operands[i], got[i])
				}
			}
		})
	}
}

func TestValueOpClassification(t *testing.T) {
	for _, op := range []ValueOp{OpAdd, OpLt, OpNot, OpID, OpFMul, OpPtrAdd} {
		if !op.Pure() {
			t.Errorf("expected %s to be pure", op)
		}
	}
	for _, op := range []ValueOp{OpCall, OpAlloc, OpLoad, ValueOp("mystery")} {
		if op.Pure() {
			t.Errorf("expected %s to be impure", op)
		}
	}

	for _, op := range []ValueOp{OpCall, ValueOp("mystery")} {
		if !op.HasSideEffects() {
			t.Errorf("expected %s to have side effects", op)
		}
	}
	for _, op := range []ValueOp{OpAdd, OpAlloc, OpLoad} {
		if op.HasSideEffects() {
			t.Errorf("expected %s to have no side effects", op)
		}
	}

	for _, op := range []ValueOp{OpAdd, OpMul, OpEq, OpAnd, OpOr} {
		if !op.Commutative() {
			t.Errorf("expected %s to be commutative", op)
		}
	}
	for _, op := range []ValueOp{OpSub, OpDiv, OpLt, OpGe} {
		if op.Commutative() {
			t.Errorf("expected %s not to be commutative", op)
		}
	}
}

func TestEffectTransfers(t *testing.T) {
	if !OpJump.Transfers() || !OpBranch.Transfers() {
		t.Error("expected jmp and br to transfer control")
	}
	for _, op := range []EffectOp{OpReturn, OpPrint, OpEffCall, OpNop} {
		if op.Transfers() {
			t.Errorf("expected %s not to transfer control", op)
		}
	}
}

func TestTypeString(t *testing.T) {
	nested := PtrTo(PtrTo(Bool))
	if got := nested.String(); got != "ptr<ptr<bool>>" {
		t.Errorf("expected ptr<ptr<bool>>, got %s", got)
	}
	if !nested.Equals(PtrTo(PtrTo(Bool))) {
		t.Error("expected equal pointer types")
	}
	if nested.Equals(PtrTo(Bool)) {
		t.Error("expected different pointer depths to differ")
	}
}

func TestIsNop(t *testing.T) {
	if !IsNop(Nop()) {
		t.Error("expected Nop() to be a nop")
	}
	if IsNop(&Effect{Op: OpPrint}) {
		t.Error("print is not a nop")
	}
	if IsNop(&Constant{Dest: "a", Type: Int}) {
		t.Error("constant is not a nop")
	}
}
