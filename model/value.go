package model

import "bytes"

// Value is a wire value kept as an undecoded view into the request body.
// Raw is decoded by the converter only once the method has been resolved.
type Value struct {
	Kind Kind
	Raw  []byte
}

func NewValue(raw []byte) Value {
	return Value{Kind: KindOfRaw(raw), Raw: raw}
}

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Clone detaches the value from the buffer it was parsed from.
func (v Value) Clone() Value {
	return Value{Kind: v.Kind, Raw: bytes.Clone(v.Raw)}
}

type NamedValue struct {
	Name  string
	Value Value
}

// Params is the parameter set of a request. Exactly one of Positional and
// Named is meaningful, selected by Keyed. Present distinguishes an absent
// "params" member from an empty one.
type Params struct {
	Present    bool
	Keyed      bool
	Positional []Value
	Named      []NamedValue
}

func (p Params) Len() int {
	if p.Keyed {
		return len(p.Named)
	}
	return len(p.Positional)
}

func (p Params) Clone() Params {
	c := Params{Present: p.Present, Keyed: p.Keyed}
	if p.Positional != nil {
		c.Positional = make([]Value, len(p.Positional))
		for i, v := range p.Positional {
			c.Positional[i] = v.Clone()
		}
	}
	if p.Named != nil {
		c.Named = make([]NamedValue, len(p.Named))
		for i, nv := range p.Named {
			c.Named[i] = NamedValue{Name: nv.Name, Value: nv.Value.Clone()}
		}
	}
	return c
}
