// Package signature encodes a method name and the shape of its parameters
// into a compact string usable as an exact map key.
//
// Layout:
//
//	uvarint(len(method)) method marker shape
//
// marker is 'N' (no params), 'P' (positional) or 'K' (keyed). A positional
// shape is one kind byte per value. A keyed shape is a sequence of
// uvarint(len(name)) name kind, sorted by name, so that member order on
// the wire does not matter.
package signature

import (
	"encoding/binary"
	"sort"

	"github.com/ozontech/jrpc/model"
)

type Signature string

const (
	markerNone       = 'N'
	markerPositional = 'P'
	markerKeyed      = 'K'
)

func Create(method string, params model.Params) Signature {
	return Signature(AppendCreate(make([]byte, 0, 16+len(method)+4*params.Len()), method, params))
}

// AppendCreate appends the encoding to b.
func AppendCreate(b []byte, method string, params model.Params) []byte {
	b = appendString(b, method)
	switch {
	case !params.Present:
		return append(b, markerNone)
	case params.Keyed:
		b = append(b, markerKeyed)
		named := params.Named
		if !sort.SliceIsSorted(named, func(i, j int) bool { return named[i].Name < named[j].Name }) {
			named = append([]model.NamedValue(nil), named...)
			sort.Slice(named, func(i, j int) bool { return named[i].Name < named[j].Name })
		}
		for _, nv := range named {
			b = appendString(b, nv.Name)
			b = append(b, kindByte(nv.Value.Kind))
		}
		return b
	default:
		b = append(b, markerPositional)
		for _, v := range params.Positional {
			b = append(b, kindByte(v.Kind))
		}
		return b
	}
}

func appendString(b []byte, s string) []byte {
	b = binary.AppendUvarint(b, uint64(len(s)))
	return append(b, s...)
}

func kindByte(k model.Kind) byte { return '0' + byte(k) }
