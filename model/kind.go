package model

// Kind is the coarse type tag of a wire value. Declared parameter types use
// the same tags except KindNull.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindNumber
	KindString
	KindObject
	KindArray
)

var kindNames = [...]string{
	KindNull:    "null",
	KindBoolean: "boolean",
	KindNumber:  "number",
	KindString:  "string",
	KindObject:  "object",
	KindArray:   "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// KindOfRaw classifies a raw JSON value by its first significant byte.
// The caller guarantees raw is a single syntactically valid value.
func KindOfRaw(raw []byte) Kind {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '{':
			return KindObject
		case '[':
			return KindArray
		case '"':
			return KindString
		case 't', 'f':
			return KindBoolean
		case 'n':
			return KindNull
		default:
			return KindNumber
		}
	}
	return KindNull
}
