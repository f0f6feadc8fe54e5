package optimizer

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hassan/brilopt/internal/bril"
	"github.com/hassan/brilopt/internal/ir"
)

// NumberValues runs local value numbering followed by local dead code
// elimination on every live block of fn. Blocks are processed
// independently; no value identity is shared between blocks.
//
// EXAMPLE:
//
//	Before:  x: int = add a b;
//	         y: int = add b a;   <- same value as x
//	         print y;
//	After:   x: int = add a b;
//	         print x;            <- y's use redirected, y removed
//
// Returns the number of instructions rewritten by value numbering and the
// number tombstoned by local dead code elimination.
func NumberValues(fn *ir.Func) (rewritten, removed int) {
	for i, block := range fn.Blocks {
		if !block.Live {
			continue
		}

		rewritten += numberBlock(block)
		removed += localDeadCode(block, fn.LiveSuccessors(i) > 0)
	}

	return rewritten, removed
}

// valueEntry is one value number. holders lists, in assignment order, the
// variables that currently hold the value; the first one is canonical.
type valueEntry struct {
	holders []string
}

// numbering is the value table of a single block.
type numbering struct {
	values []*valueEntry

	// table maps an expression key to its value number
	table map[string]int

	// vars maps a variable to the number of the value it currently holds
	vars map[string]int
}

func newNumbering() *numbering {
	return &numbering{
		table: make(map[string]int),
		vars:  make(map[string]int),
	}
}

func (n *numbering) fresh() int {
	n.values = append(n.values, &valueEntry{})
	return len(n.values) - 1
}

// numberOf returns the value number of a variable. Variables defined
// outside the block get a fresh number they hold themselves.
func (n *numbering) numberOf(name string) int {
	if num, ok := n.vars[name]; ok {
		return num
	}

	num := n.fresh()
	n.assign(name, num)
	return num
}

// canonical returns the variable uses of name should read.
func (n *numbering) canonical(name string) string {
	num, ok := n.vars[name]
	if !ok {
		return name
	}
	return n.values[num].holders[0]
}

// holder returns the canonical holder of a value number, if any variable
// still holds it.
func (n *numbering) holder(num int) (string, bool) {
	h := n.values[num].holders
	if len(h) == 0 {
		return "", false
	}
	return h[0], true
}

// assign records that name now holds value num. The variable stops
// holding whatever value it held before.
func (n *numbering) assign(name string, num int) {
	if old, ok := n.vars[name]; ok {
		e := n.values[old]
		for i, h := range e.holders {
			if h == name {
				e.holders = append(e.holders[:i:i], e.holders[i+1:]...)
				break
			}
		}
	}

	n.vars[name] = num
	n.values[num].holders = append(n.values[num].holders, name)
}

// holds reports whether name currently holds value num.
func (n *numbering) holds(name string, num int) bool {
	cur, ok := n.vars[name]
	return ok && cur == num
}

// canonicalArgs returns args with every name replaced by its canonical
// holder, and whether anything changed.
func (n *numbering) canonicalArgs(args []string) ([]string, bool) {
	var out []string

	for i, a := range args {
		c := n.canonical(a)
		if c == a && out == nil {
			continue
		}
		if out == nil {
			out = append(make([]string, 0, len(args)), args[:i]...)
		}
		out = append(out, c)
	}

	if out == nil {
		return args, false
	}
	return out, true
}

// numberBlock value-numbers the instructions of block in place.
// Returns the number of instructions rewritten into copies or no-ops.
//
// ALGORITHM:
// 1. Rewrite operands to the canonical holder of their value
// 2. Compute the expression key: op, type and operand value numbers
//    (sorted for commutative ops), or type and literal for constants
// 3. Key seen and destination already holds it: replace with nop
// 4. Key seen and held by another variable: replace with "dest = id holder"
// 5. Otherwise record a new value number for the key
//
// Impure values (calls, alloc, load, unknown ops) always get a fresh
// number and are never matched against earlier instructions. Instructions
// are replaced, never mutated, because they may be shared with the input
// program.
func numberBlock(block *ir.BasicBlock) int {
	n := newNumbering()
	rewritten := 0

	for i, instr := range block.Instructions {
		switch instr := instr.(type) {
		case *bril.Constant:
			key := "const " + instr.Type.String() + " " + literalKey(instr.Value)
			if repl, ok := n.define(key, instr.Dest, instr.Type, instr.Pos); ok {
				block.Instructions[i] = repl
				rewritten++
			}

		case *bril.Value:
			args, changed := n.canonicalArgs(instr.Args)

			var cur bril.Instruction = instr
			if changed {
				c := *instr
				c.Args = args
				cur = &c
			}

			switch {
			case !instr.Op.Pure():
				n.assign(instr.Dest, n.fresh())

			case instr.Op == bril.OpID && len(args) == 1:
				num := n.numberOf(args[0])
				if n.holds(instr.Dest, num) {
					cur = bril.Nop()
					changed = true
					break
				}
				n.assign(instr.Dest, num)

			default:
				if repl, ok := n.define(n.valueKey(instr.Op, instr.Type, args, instr.Funcs), instr.Dest, instr.Type, instr.Pos); ok {
					cur = repl
					changed = true
				}
			}

			if changed {
				block.Instructions[i] = cur
				rewritten++
			}

		case *bril.Effect:
			if args, changed := n.canonicalArgs(instr.Args); changed {
				c := *instr
				c.Args = args
				block.Instructions[i] = &c
				rewritten++
			}
		}
	}

	return rewritten
}

// define records that dest is assigned the value computed by key.
// If the value is already available it returns the replacement
// instruction.
func (n *numbering) define(key, dest string, typ bril.Type, pos *bril.Position) (bril.Instruction, bool) {
	num, ok := n.table[key]
	if !ok {
		num = n.fresh()
		n.table[key] = num
		n.assign(dest, num)
		return nil, false
	}

	if n.holds(dest, num) {
		return bril.Nop(), true
	}

	h, ok := n.holder(num)
	n.assign(dest, num)
	if !ok {
		return nil, false
	}

	return &bril.Value{Op: bril.OpID, Dest: dest, Type: typ, Args: []string{h}, Pos: pos}, true
}

func (n *numbering) valueKey(op bril.ValueOp, typ bril.Type, args, funcs []string) string {
	nums := make([]int, len(args))
	for i, a := range args {
		nums[i] = n.numberOf(a)
	}
	if op.Commutative() {
		sort.Ints(nums)
	}

	var sb strings.Builder
	sb.WriteString(string(op))
	sb.WriteByte(' ')
	sb.WriteString(typ.String())
	for _, f := range funcs {
		sb.WriteString(" @")
		sb.WriteString(f)
	}
	for _, num := range nums {
		sb.WriteString(" #")
		sb.WriteString(strconv.Itoa(num))
	}
	return sb.String()
}

func literalKey(l bril.Literal) string {
	return strconv.Itoa(int(l.Kind)) + ":" + l.String()
}

// localDeadCode tombstones definitions in block that cannot be read.
//
// A definition is dead when the block redefines its destination before
// reading it, or when nothing later in the block reads it and the value
// cannot escape: the block has no live successor. Instructions with side
// effects are kept. Repeats until nothing changes and returns the number
// of tombstones.
func localDeadCode(block *ir.BasicBlock, escapes bool) int {
	removed := 0

	for changed := true; changed; {
		changed = false

		for i, instr := range block.Instructions {
			dest := instr.Result()
			if dest == "" {
				continue
			}
			if v, ok := instr.(*bril.Value); ok && v.Op.HasSideEffects() {
				continue
			}

			used, redefined := scanAfter(block.Instructions[i+1:], dest)
			if used || (!redefined && escapes) {
				continue
			}

			block.Instructions[i] = bril.Nop()
			removed++
			changed = true
		}
	}

	return removed
}

// scanAfter reports whether name is read by instrs before being
// redefined, and whether it is redefined at all before such a read.
func scanAfter(instrs []bril.Instruction, name string) (used, redefined bool) {
	for _, instr := range instrs {
		for _, arg := range instr.Operands() {
			if arg == name {
				return true, false
			}
		}
		if instr.Result() == name {
			return false, true
		}
	}
	return false, false
}
