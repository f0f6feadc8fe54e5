// Package ir turns Bril functions into basic-block graphs and back.
//
// PIPELINE:
//
//	bril.Function --BuildBlocks--> Func --BuildCFG--> Func (with edges)
//	    --optimizer passes--> Func --Linearize--> bril.Function
//
// A Func owns its blocks in a slice. Blocks refer to each other only by
// their index in that slice (InEdges/OutEdges), never by pointer, so a
// block never outlives or escapes the function that owns it.
package ir

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hassan/brilopt/internal/bril"
)

// Reserved label prefixes. '%' is not a valid character in a Bril label,
// so synthetic labels can never collide with user labels.
const (
	entryPrefix = "%start_"
	blockPrefix = "%block_"
)

// IndexSet is a sorted set of block indices.
type IndexSet []int

// Add inserts i, keeping the set sorted. Returns false if i was present.
func (s *IndexSet) Add(i int) bool {
	pos := sort.SearchInts(*s, i)
	if pos < len(*s) && (*s)[pos] == i {
		return false
	}

	*s = append(*s, 0)
	copy((*s)[pos+1:], (*s)[pos:])
	(*s)[pos] = i
	return true
}

// Contains reports whether i is in the set.
func (s IndexSet) Contains(i int) bool {
	pos := sort.SearchInts(s, i)
	return pos < len(s) && s[pos] == i
}

// Len returns the number of indices in the set.
func (s IndexSet) Len() int { return len(s) }

func (s IndexSet) String() string {
	parts := make([]string, len(s))
	for i, idx := range s {
		parts[i] = strconv.Itoa(idx)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// BasicBlock is a straight-line run of instructions with a single entry
// (its label) and a single exit (its last instruction).
//
// EXAMPLE:
//
//	.loop:                 <- LabelInstr
//	  i: int = add i one;  <- Instructions[0]
//	  c: bool = lt i n;
//	  br c .loop .done;    <- Instructions[2], OutEdges = {loop, done}
type BasicBlock struct {
	// Label is the unique name of this block within its function.
	Label string

	// LabelInstr is the label item that opened this block.
	// Nil for synthetic blocks (the entry block and blocks opened
	// after a jump or branch).
	LabelInstr *bril.Label

	// Instructions in this block, in order. Never contains labels.
	Instructions []bril.Instruction

	// Live is cleared when the block is found unreachable.
	Live bool

	// InEdges are the indices of predecessor blocks.
	InEdges IndexSet

	// OutEdges are the indices of successor blocks.
	OutEdges IndexSet
}

// NewBasicBlock creates a new live, empty basic block.
func NewBasicBlock(label string) *BasicBlock {
	return &BasicBlock{
		Label:        label,
		Instructions: make([]bril.Instruction, 0),
		Live:         true,
	}
}

// AddInstruction adds an instruction to the end of this block.
func (bb *BasicBlock) AddInstruction(instr bril.Instruction) {
	bb.Instructions = append(bb.Instructions, instr)
}

// Last returns the last instruction, or nil if the block is empty.
func (bb *BasicBlock) Last() bril.Instruction {
	if len(bb.Instructions) == 0 {
		return nil
	}
	return bb.Instructions[len(bb.Instructions)-1]
}

// Terminator returns the last instruction if it is a jmp, br or ret.
// Returns nil otherwise, in which case control falls through.
func (bb *BasicBlock) Terminator() *bril.Effect {
	e, ok := bb.Last().(*bril.Effect)
	if !ok {
		return nil
	}

	switch e.Op {
	case bril.OpJump, bril.OpBranch, bril.OpReturn:
		return e
	default:
		return nil
	}
}

// IsTerminated returns true if this block ends with a terminator.
func (bb *BasicBlock) IsTerminated() bool {
	return bb.Terminator() != nil
}

// String returns the debug form of the block:
//
//	  label(): in: [0,2] out: [3]
//	    instr;
func (bb *BasicBlock) String() string {
	var sb strings.Builder

	sb.WriteString("  ")
	sb.WriteString(bb.Label)
	sb.WriteString("(): in: ")
	sb.WriteString(bb.InEdges.String())
	sb.WriteString(" out: ")
	sb.WriteString(bb.OutEdges.String())
	sb.WriteString("\n")

	for _, instr := range bb.Instructions {
		sb.WriteString("    ")
		sb.WriteString(instr.String())
		sb.WriteString("\n")
	}

	return sb.String()
}

// Func is a function split into basic blocks.
//
// Blocks[0] is the entry block and is always considered reachable.
type Func struct {
	// Blocks is the arena of this function's basic blocks.
	Blocks []*BasicBlock

	// Function holds the original header (name, args, return type,
	// position) used to rebuild the function after optimization.
	Function *bril.Function
}

// Name returns the function name.
func (f *Func) Name() string { return f.Function.Name }

// AddEdge records a control transfer from block s to block t.
//
// Both sides of the relation are updated together: t joins the successors
// of s and s joins the predecessors of t.
func (f *Func) AddEdge(s, t int) {
	f.Blocks[s].OutEdges.Add(t)
	f.Blocks[t].InEdges.Add(s)
}

// LiveSuccessors returns the number of live successors of block i.
func (f *Func) LiveSuccessors(i int) int {
	n := 0
	for _, succ := range f.Blocks[i].OutEdges {
		if f.Blocks[succ].Live {
			n++
		}
	}
	return n
}

// LivePredecessors returns the number of live predecessors of block i.
func (f *Func) LivePredecessors(i int) int {
	n := 0
	for _, pred := range f.Blocks[i].InEdges {
		if f.Blocks[pred].Live {
			n++
		}
	}
	return n
}

// String returns the CFG dump of the function. Dead blocks are omitted.
func (f *Func) String() string {
	var sb strings.Builder

	sb.WriteString(f.Name())
	sb.WriteString(" {\n")

	for _, block := range f.Blocks {
		if block.Live {
			sb.WriteString(block.String())
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// Program is a Bril program whose functions have been split into blocks.
type Program struct {
	Funcs []*Func
}

// String returns the CFG dump of every function.
func (p *Program) String() string {
	var sb strings.Builder
	for _, f := range p.Funcs {
		sb.WriteString(f.String())
	}
	return sb.String()
}
