package bril

import (
	"strings"
)

// Code is one item of a function body: a *Label or an Instruction.
//
// Labels never carry operands and instructions never carry a label, so a
// type switch on Code is always one of *Label, *Constant, *Value or *Effect.
type Code interface {
	String() string

	code()
}

// Label marks a position in a function body that jumps and branches can
// target.
type Label struct {
	Label string
	Pos   *Position
}

func (l *Label) code() {}

func (l *Label) String() string {
	return "." + l.Label + ":"
}

// Instruction is a Bril instruction.
//
// A Bril instruction either produces a value into a destination variable
// (*Constant, *Value) or is executed for its effect (*Effect).
type Instruction interface {
	Code

	// Operands returns the names of the variables read by this instruction.
	Operands() []string

	// Result returns the destination written by this instruction, or "" if
	// the instruction has no destination.
	Result() string
}

// ValueOp is the operation of a value-producing instruction.
type ValueOp string

const (
	OpAdd ValueOp = "add"
	OpSub ValueOp = "sub"
	OpMul ValueOp = "mul"
	OpDiv ValueOp = "div"

	OpEq ValueOp = "eq"
	OpLt ValueOp = "lt"
	OpGt ValueOp = "gt"
	OpLe ValueOp = "le"
	OpGe ValueOp = "ge"

	OpNot ValueOp = "not"
	OpAnd ValueOp = "and"
	OpOr  ValueOp = "or"

	OpID   ValueOp = "id"
	OpCall ValueOp = "call"

	// Memory extension
	OpAlloc  ValueOp = "alloc"
	OpLoad   ValueOp = "load"
	OpPtrAdd ValueOp = "ptradd"

	// Floating point extension
	OpFAdd ValueOp = "fadd"
	OpFSub ValueOp = "fsub"
	OpFMul ValueOp = "fmul"
	OpFDiv ValueOp = "fdiv"
	OpFEq  ValueOp = "feq"
	OpFLt  ValueOp = "flt"
	OpFGt  ValueOp = "fgt"
	OpFLe  ValueOp = "fle"
	OpFGe  ValueOp = "fge"

	// Character extension
	OpCEq       ValueOp = "ceq"
	OpCLt       ValueOp = "clt"
	OpCGt       ValueOp = "cgt"
	OpCLe       ValueOp = "cle"
	OpCGe       ValueOp = "cge"
	OpChar2Int  ValueOp = "char2int"
	OpInt2Char  ValueOp = "int2char"
	OpFloat2Int ValueOp = "float2int"
	OpInt2Float ValueOp = "int2float"
)

var pureOps = map[ValueOp]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true,
	OpEq: true, OpLt: true, OpGt: true, OpLe: true, OpGe: true,
	OpNot: true, OpAnd: true, OpOr: true,
	OpID: true, OpPtrAdd: true,
	OpFAdd: true, OpFSub: true, OpFMul: true, OpFDiv: true,
	OpFEq: true, OpFLt: true, OpFGt: true, OpFLe: true, OpFGe: true,
	OpCEq: true, OpCLt: true, OpCGt: true, OpCLe: true, OpCGe: true,
	OpChar2Int: true, OpInt2Char: true, OpFloat2Int: true, OpInt2Float: true,
}

// Pure reports whether the result of op depends only on its operands.
//
// Calls may have side effects, alloc returns a fresh pointer each time and
// load depends on memory, so none of them are pure. Ops this package does
// not know are treated as impure.
func (op ValueOp) Pure() bool {
	return pureOps[op]
}

// HasSideEffects reports whether executing op may do more than write its
// destination. Such instructions must be kept even when their result is
// never read.
func (op ValueOp) HasSideEffects() bool {
	switch op {
	case OpAlloc, OpLoad:
		return false
	default:
		return !op.Pure()
	}
}

// Commutative reports whether the operand order of op is irrelevant.
func (op ValueOp) Commutative() bool {
	switch op {
	case OpAdd, OpMul, OpEq, OpAnd, OpOr, OpFAdd, OpFMul, OpFEq, OpCEq:
		return true
	default:
		return false
	}
}

// EffectOp is the operation of an effect instruction.
type EffectOp string

const (
	OpJump      EffectOp = "jmp"
	OpBranch    EffectOp = "br"
	OpReturn    EffectOp = "ret"
	OpPrint     EffectOp = "print"
	OpNop       EffectOp = "nop"
	OpEffCall   EffectOp = "call"
	OpStore     EffectOp = "store"
	OpFree      EffectOp = "free"
	OpSpeculate EffectOp = "speculate"
	OpCommit    EffectOp = "commit"
	OpGuard     EffectOp = "guard"
)

// Transfers reports whether op unconditionally leaves the current block
// through one of its labels.
func (op EffectOp) Transfers() bool {
	return op == OpJump || op == OpBranch
}

// Constant produces a literal into Dest.
// Format: dest: type = const value;
type Constant struct {
	Dest  string
	Type  Type
	Value Literal
	Pos   *Position
}

func (c *Constant) code() {}

func (c *Constant) String() string {
	return c.Dest + ": " + c.Type.String() + " = const " + c.Value.String() + ";"
}

func (c *Constant) Operands() []string { return nil }
func (c *Constant) Result() string     { return c.Dest }

// Value computes Op over Args into Dest.
// Format: dest: type = op @funcs args .labels;
type Value struct {
	Op     ValueOp
	Dest   string
	Type   Type
	Args   []string
	Funcs  []string
	Labels []string
	Pos    *Position
}

func (v *Value) code() {}

func (v *Value) String() string {
	var sb strings.Builder
	sb.WriteString(v.Dest)
	sb.WriteString(": ")
	sb.WriteString(v.Type.String())
	sb.WriteString(" = ")
	sb.WriteString(string(v.Op))
	writeOperands(&sb, v.Funcs, v.Args, v.Labels)
	sb.WriteByte(';')
	return sb.String()
}

func (v *Value) Operands() []string { return v.Args }
func (v *Value) Result() string     { return v.Dest }

// Effect is an instruction without a destination: control flow, print,
// calls whose result is discarded, stores and the like.
// Format: op @funcs args .labels;
type Effect struct {
	Op     EffectOp
	Args   []string
	Funcs  []string
	Labels []string
	Pos    *Position
}

func (e *Effect) code() {}

func (e *Effect) String() string {
	var sb strings.Builder
	sb.WriteString(string(e.Op))
	writeOperands(&sb, e.Funcs, e.Args, e.Labels)
	sb.WriteByte(';')
	return sb.String()
}

func (e *Effect) Operands() []string { return e.Args }
func (e *Effect) Result() string     { return "" }

// Nop returns a fresh no-op instruction.
func Nop() *Effect {
	return &Effect{Op: OpNop}
}

// IsNop reports whether instr is a no-op effect.
func IsNop(instr Instruction) bool {
	e, ok := instr.(*Effect)
	return ok && e.Op == OpNop
}

func writeOperands(sb *strings.Builder, funcs, args, labels []string) {
	for _, f := range funcs {
		sb.WriteString(" @")
		sb.WriteString(f)
	}
	for _, a := range args {
		sb.WriteByte(' ')
		sb.WriteString(a)
	}
	for _, l := range labels {
		sb.WriteString(" .")
		sb.WriteString(l)
	}
}
