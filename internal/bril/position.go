package bril

import "strconv"

// Position is a location in the Bril source text a program was produced from.
//
// Bril tools attach positions to functions and instructions when the program
// was converted from text with source tracking enabled. They are optional:
// a nil *Position means "unknown".
//
// Row and Col are 1-based, matching how editors display them. The zero
// value is invalid.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// String returns "row:col".
// Example: "12:5"
func (p Position) String() string {
	return strconv.Itoa(p.Row) + ":" + strconv.Itoa(p.Col)
}

// IsValid returns true if the position has a non-zero row.
func (p Position) IsValid() bool {
	return p.Row > 0
}

// clonePos copies an optional position so rebuilt functions never alias
// the input program.
func clonePos(p *Position) *Position {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
