// Package bril models Bril programs: functions made of a flat list of labels
// and instructions.
//
// WHAT IS BRIL?
// Bril is a small instruction-based IR. A function body is a flat list of
// code items; control flow is expressed with labels and the jmp/br/ret
// effect instructions:
//
//	@main {
//	  v: int = const 4;
//	  b: bool = lt v v;
//	  br b .then .else;
//	.then:
//	  print v;
//	.else:
//	  ret;
//	}
//
// Programs are exchanged as JSON (see Decode and Encode). The String methods
// print the textual form above, which is what debugging dumps use.
package bril

import (
	"strings"
)

// Program is a complete Bril program.
type Program struct {
	Functions []*Function
}

// Function is a Bril function with its flat body.
type Function struct {
	Name string

	// Args are the formal arguments in declaration order.
	Args []Argument

	// Type is the return type, nil for functions that return nothing.
	Type *Type

	// Instrs is the function body.
	Instrs []Code

	Pos *Position
}

// Argument is a formal function argument.
type Argument struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// CloneHeader returns a copy of fn's metadata (name, arguments, return type
// and position) with an empty body.
func (fn *Function) CloneHeader() *Function {
	out := &Function{
		Name: fn.Name,
		Args: append([]Argument(nil), fn.Args...),
		Pos:  clonePos(fn.Pos),
	}
	if fn.Type != nil {
		t := *fn.Type
		out.Type = &t
	}
	return out
}

// String returns the textual form of the function.
func (fn *Function) String() string {
	var sb strings.Builder

	sb.WriteString("@")
	sb.WriteString(fn.Name)
	if len(fn.Args) > 0 {
		sb.WriteString("(")
		for i, arg := range fn.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.Name)
			sb.WriteString(": ")
			sb.WriteString(arg.Type.String())
		}
		sb.WriteString(")")
	}
	if fn.Type != nil {
		sb.WriteString(": ")
		sb.WriteString(fn.Type.String())
	}
	sb.WriteString(" {\n")

	for _, c := range fn.Instrs {
		if _, ok := c.(*Label); !ok {
			sb.WriteString("  ")
		}
		sb.WriteString(c.String())
		sb.WriteString("\n")
	}

	sb.WriteString("}\n")
	return sb.String()
}

// String returns the textual form of the program.
func (p *Program) String() string {
	var sb strings.Builder
	for i, fn := range p.Functions {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fn.String())
	}
	return sb.String()
}
