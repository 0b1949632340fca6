package model

import (
	"strconv"

	"github.com/mailru/easyjson/jwriter"
)

type IDKind uint8

const (
	IDAbsent IDKind = iota
	IDString
	IDNumber
)

// ID is a request id. Numbers keep their textual form so that precision is
// never lost on the way back to the client.
type ID struct {
	Kind IDKind
	Text string
}

var NullID = ID{}

func StringID(s string) ID { return ID{Kind: IDString, Text: s} }

func NumberID(text string) ID { return ID{Kind: IDNumber, Text: text} }

func IntID(n int64) ID { return NumberID(strconv.FormatInt(n, 10)) }

func (id ID) IsPresent() bool { return id.Kind != IDAbsent }

// Key is usable as a map key for duplicate detection. Absent ids have no key.
func (id ID) Key() (string, bool) {
	switch id.Kind {
	case IDString:
		return "s" + id.Text, true
	case IDNumber:
		return "n" + id.Text, true
	default:
		return "", false
	}
}

func (id ID) String() string {
	switch id.Kind {
	case IDString:
		return strconv.Quote(id.Text)
	case IDNumber:
		return id.Text
	default:
		return "null"
	}
}

func (id ID) MarshalEasyJSON(w *jwriter.Writer) {
	switch id.Kind {
	case IDString:
		w.String(id.Text)
	case IDNumber:
		w.RawString(id.Text)
	default:
		w.RawString("null")
	}
}
