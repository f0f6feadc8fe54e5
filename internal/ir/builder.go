package ir

import (
	"strconv"

	"github.com/hassan/brilopt/internal/bril"
)

// Builder splits the flat body of a Bril function into basic blocks.
//
// It maintains a "current block" that instructions are appended to. A
// block is closed when control leaves it unconditionally (jmp, br) or when
// a label starts a new block.
type Builder struct {
	// fn is the function being built
	fn *Func

	// currentBlock is the block instructions are appended to
	currentBlock *BasicBlock

	// blockNum numbers the anonymous blocks opened after jumps
	blockNum int
}

// NewProgram splits every function of p into basic blocks.
// Edges are not computed; call BuildCFG for that.
func NewProgram(p *bril.Program) *Program {
	prog := &Program{Funcs: make([]*Func, 0, len(p.Functions))}
	for _, fn := range p.Functions {
		prog.Funcs = append(prog.Funcs, BuildBlocks(fn))
	}
	return prog
}

// BuildBlocks splits fn into basic blocks.
//
// ALGORITHM:
// 1. Start with a synthetic entry block named after the function
// 2. Constants and values are appended to the current block
// 3. jmp and br are appended, then the block is closed and a new
//    anonymous block is opened
// 4. Any other effect (ret, call, print, ...) is appended without closing
// 5. A label closes the current block and opens a block carrying it.
//    An empty unlabeled current block is dropped instead of closed.
// 6. The last block is always kept, even when empty
//
// The result always has at least one block.
func BuildBlocks(fn *bril.Function) *Func {
	b := &Builder{
		fn: &Func{
			Blocks:   make([]*BasicBlock, 0),
			Function: fn,
		},
		currentBlock: NewBasicBlock(entryPrefix + fn.Name),
	}

	for _, c := range fn.Instrs {
		b.add(c)
	}

	b.closeBlock()
	return b.fn
}

func (b *Builder) add(c bril.Code) {
	switch c := c.(type) {
	case *bril.Label:
		if len(b.currentBlock.Instructions) > 0 || b.currentBlock.LabelInstr != nil {
			b.closeBlock()
		}
		b.currentBlock = NewBasicBlock(c.Label)
		b.currentBlock.LabelInstr = c

	case *bril.Effect:
		b.currentBlock.AddInstruction(c)
		if c.Op.Transfers() {
			b.closeBlock()
			b.currentBlock = NewBasicBlock(blockPrefix + strconv.Itoa(b.blockNum))
			b.blockNum++
		}

	case bril.Instruction:
		b.currentBlock.AddInstruction(c)
	}
}

func (b *Builder) closeBlock() {
	b.fn.Blocks = append(b.fn.Blocks, b.currentBlock)
}
