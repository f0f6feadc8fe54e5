package bril

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf8"

	"github.com/nikandfor/errors"
)

// Type is a Bril type: either a primitive (int, bool, float, char) or a
// pointer to another type.
//
// JSON ENCODING:
//
//	"int"              primitive
//	{"ptr": "int"}     ptr<int>
//	{"ptr": {"ptr": "bool"}}
type Type struct {
	// Name is the primitive type name. Empty for pointer types.
	Name string

	// Ptr is the pointee for pointer types.
	Ptr *Type
}

// Primitive types.
var (
	Int   = Type{Name: "int"}
	Bool  = Type{Name: "bool"}
	Float = Type{Name: "float"}
	Char  = Type{Name: "char"}
)

// PtrTo returns the pointer type ptr<t>.
func PtrTo(t Type) Type {
	return Type{Ptr: &t}
}

// IsPtr returns true for pointer types.
func (t Type) IsPtr() bool { return t.Ptr != nil }

func (t Type) String() string {
	if t.Ptr != nil {
		return "ptr<" + t.Ptr.String() + ">"
	}
	return t.Name
}

// Equals reports structural equality.
func (t Type) Equals(other Type) bool {
	if t.IsPtr() != other.IsPtr() {
		return false
	}
	if t.IsPtr() {
		return t.Ptr.Equals(*other.Ptr)
	}
	return t.Name == other.Name
}

func (t Type) MarshalJSON() ([]byte, error) {
	if t.Ptr != nil {
		inner, err := t.Ptr.MarshalJSON()
		if err != nil {
			return nil, err
		}
		var b bytes.Buffer
		b.WriteString(`{"ptr":`)
		b.Write(inner)
		b.WriteByte('}')
		return b.Bytes(), nil
	}
	return json.Marshal(t.Name)
}

func (t *Type) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*t = Type{}
		return json.Unmarshal(data, &t.Name)
	}

	var p struct {
		Ptr *Type `json:"ptr"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return errors.Wrap(err, "type")
	}
	if p.Ptr == nil {
		return errors.New("type: expected string or {\"ptr\": ...}, got %s", data)
	}
	*t = Type{Ptr: p.Ptr}
	return nil
}

// LiteralKind tells which field of a Literal is meaningful.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitBool
	LitFloat
	LitChar
)

// Literal is the value carried by a const instruction.
//
// The JSON form of a literal is untyped ("value": 4), so it is decoded using
// the type of the instruction that carries it; see decodeLiteral.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Bool  bool
	Float float64
	Char  rune
}

// IntLit returns an int literal.
func IntLit(v int64) Literal { return Literal{Kind: LitInt, Int: v} }

// BoolLit returns a bool literal.
func BoolLit(v bool) Literal { return Literal{Kind: LitBool, Bool: v} }

// FloatLit returns a float literal.
func FloatLit(v float64) Literal { return Literal{Kind: LitFloat, Float: v} }

// CharLit returns a char literal.
func CharLit(v rune) Literal { return Literal{Kind: LitChar, Char: v} }

func (l Literal) String() string {
	switch l.Kind {
	case LitBool:
		return strconv.FormatBool(l.Bool)
	case LitFloat:
		return strconv.FormatFloat(l.Float, 'g', -1, 64)
	case LitChar:
		return string(l.Char)
	default:
		return strconv.FormatInt(l.Int, 10)
	}
}

func (l Literal) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case LitBool:
		return json.Marshal(l.Bool)
	case LitFloat:
		return json.Marshal(l.Float)
	case LitChar:
		return json.Marshal(string(l.Char))
	default:
		return json.Marshal(l.Int)
	}
}

// decodeLiteral decodes a raw JSON literal according to typ.
// A literal of unknown type is decoded by its JSON shape.
func decodeLiteral(raw json.RawMessage, typ Type) (Literal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Literal{}, errors.New("missing value")
	}

	switch typ.Name {
	case "bool":
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return Literal{}, errors.Wrap(err, "bool literal")
		}
		return BoolLit(v), nil
	case "float":
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return Literal{}, errors.Wrap(err, "float literal")
		}
		return FloatLit(v), nil
	case "char":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Literal{}, errors.Wrap(err, "char literal")
		}
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 || size != len(s) {
			return Literal{}, errors.New("char literal %q: want exactly one character", s)
		}
		return CharLit(r), nil
	case "int":
		v, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return Literal{}, errors.Wrap(err, "int literal")
		}
		return IntLit(v), nil
	}

	switch raw[0] {
	case 't', 'f':
		return decodeLiteral(raw, Bool)
	case '"':
		return decodeLiteral(raw, Char)
	}
	if v, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		return IntLit(v), nil
	}
	return decodeLiteral(raw, Float)
}
