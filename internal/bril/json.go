package bril

import (
	"encoding/json"
	"io"

	"github.com/nikandfor/errors"
)

// JSON wire shapes. The canonical Bril JSON form puts every instruction
// kind in one flat object, told apart by its fields:
//
//	{"label": "loop"}                                        label
//	{"op": "const", "dest": "a", "type": "int", "value": 4}  constant
//	{"op": "add", "dest": "c", "type": "int", "args": [...]} value
//	{"op": "br", "args": ["c"], "labels": ["t", "f"]}        effect
type (
	jsonProgram struct {
		Functions []jsonFunction `json:"functions"`
	}

	jsonFunction struct {
		Name   string            `json:"name"`
		Args   []Argument        `json:"args,omitempty"`
		Type   *Type             `json:"type,omitempty"`
		Instrs []json.RawMessage `json:"instrs"`
		Pos    *Position         `json:"pos,omitempty"`
	}

	jsonCode struct {
		Label  *string         `json:"label,omitempty"`
		Op     string          `json:"op,omitempty"`
		Dest   string          `json:"dest,omitempty"`
		Type   *Type           `json:"type,omitempty"`
		Args   []string        `json:"args,omitempty"`
		Funcs  []string        `json:"funcs,omitempty"`
		Labels []string        `json:"labels,omitempty"`
		Value  json.RawMessage `json:"value,omitempty"`
		Pos    *Position       `json:"pos,omitempty"`
	}
)

// Decode reads a JSON-encoded Bril program.
func Decode(r io.Reader) (*Program, error) {
	var jp jsonProgram
	if err := json.NewDecoder(r).Decode(&jp); err != nil {
		return nil, errors.Wrap(err, "decode program")
	}

	p := &Program{Functions: make([]*Function, 0, len(jp.Functions))}
	for _, jf := range jp.Functions {
		fn := &Function{
			Name:   jf.Name,
			Args:   jf.Args,
			Type:   jf.Type,
			Instrs: make([]Code, 0, len(jf.Instrs)),
			Pos:    jf.Pos,
		}

		for i, raw := range jf.Instrs {
			c, err := decodeCode(raw)
			if err != nil {
				return nil, errors.Wrap(err, "func %v: instr %d", jf.Name, i)
			}
			fn.Instrs = append(fn.Instrs, c)
		}

		p.Functions = append(p.Functions, fn)
	}

	return p, nil
}

func decodeCode(raw json.RawMessage) (Code, error) {
	var jc jsonCode
	if err := json.Unmarshal(raw, &jc); err != nil {
		return nil, err
	}

	c, err := codeFromJSON(&jc, raw)
	if err != nil && jc.Pos != nil && jc.Pos.IsValid() {
		return nil, errors.Wrap(err, "at %v", *jc.Pos)
	}

	return c, err
}

func codeFromJSON(jc *jsonCode, raw json.RawMessage) (Code, error) {
	switch {
	case jc.Label != nil:
		return &Label{Label: *jc.Label, Pos: jc.Pos}, nil
	case jc.Op == "":
		return nil, errors.New("instruction without op: %s", raw)
	case jc.Op == "const":
		if jc.Dest == "" || jc.Type == nil {
			return nil, errors.New("const without dest or type")
		}
		lit, err := decodeLiteral(jc.Value, *jc.Type)
		if err != nil {
			return nil, errors.Wrap(err, "const %v", jc.Dest)
		}
		return &Constant{Dest: jc.Dest, Type: *jc.Type, Value: lit, Pos: jc.Pos}, nil
	case jc.Dest != "":
		if jc.Type == nil {
			return nil, errors.New("%v %v: missing type", jc.Op, jc.Dest)
		}
		return &Value{
			Op:     ValueOp(jc.Op),
			Dest:   jc.Dest,
			Type:   *jc.Type,
			Args:   jc.Args,
			Funcs:  jc.Funcs,
			Labels: jc.Labels,
			Pos:    jc.Pos,
		}, nil
	default:
		return &Effect{
			Op:     EffectOp(jc.Op),
			Args:   jc.Args,
			Funcs:  jc.Funcs,
			Labels: jc.Labels,
			Pos:    jc.Pos,
		}, nil
	}
}

// Encode writes p as indented JSON.
func Encode(w io.Writer, p *Program) error {
	jp := jsonProgram{Functions: make([]jsonFunction, 0, len(p.Functions))}

	for _, fn := range p.Functions {
		jf := jsonFunction{
			Name:   fn.Name,
			Args:   fn.Args,
			Type:   fn.Type,
			Instrs: make([]json.RawMessage, 0, len(fn.Instrs)),
			Pos:    fn.Pos,
		}

		for _, c := range fn.Instrs {
			raw, err := encodeCode(c)
			if err != nil {
				return errors.Wrap(err, "func %v", fn.Name)
			}
			jf.Instrs = append(jf.Instrs, raw)
		}

		jp.Functions = append(jp.Functions, jf)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if err := enc.Encode(jp); err != nil {
		return errors.Wrap(err, "encode program")
	}

	return nil
}

func encodeCode(c Code) (json.RawMessage, error) {
	var jc jsonCode

	switch c := c.(type) {
	case *Label:
		jc.Label = &c.Label
		jc.Pos = c.Pos
	case *Constant:
		val, err := c.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		jc.Op = "const"
		jc.Dest = c.Dest
		jc.Type = &c.Type
		jc.Value = val
		jc.Pos = c.Pos
	case *Value:
		jc.Op = string(c.Op)
		jc.Dest = c.Dest
		jc.Type = &c.Type
		jc.Args = c.Args
		jc.Funcs = c.Funcs
		jc.Labels = c.Labels
		jc.Pos = c.Pos
	case *Effect:
		jc.Op = string(c.Op)
		jc.Args = c.Args
		jc.Funcs = c.Funcs
		jc.Labels = c.Labels
		jc.Pos = c.Pos
	default:
		return nil, errors.New("unsupported code item %T", c)
	}

	return json.Marshal(jc)
}
