package converter

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/ozontech/jrpc/model"
)

var (
	ErrNotNullable  = errors.New("null is not allowed")
	ErrIncompatible = errors.New("incompatible value")
	ErrOverflow     = errors.New("number out of range")
)

var (
	rawMessageType      = reflect.TypeOf(json.RawMessage(nil))
	protoMessageType    = reflect.TypeOf((*proto.Message)(nil)).Elem()
	easyUnmarshalerType = reflect.TypeOf((*easyjson.Unmarshaler)(nil)).Elem()
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Converter turns raw wire values into values of declared Go types.
type Converter struct {
	protoOpts             protojson.UnmarshalOptions
	disallowUnknownFields bool
	maxIntDigits          int
}

type Option func(*Converter)

// WithProtoDiscardUnknown makes protobuf destinations ignore unknown fields.
func WithProtoDiscardUnknown() Option {
	return func(c *Converter) { c.protoOpts.DiscardUnknown = true }
}

// WithDisallowUnknownFields rejects objects carrying fields the destination
// struct does not declare.
func WithDisallowUnknownFields() Option {
	return func(c *Converter) { c.disallowUnknownFields = true }
}

// WithMaxIntegerDigits caps the decimal digits of big.Int destinations.
// 0 means unlimited.
func WithMaxIntegerDigits(n int) Option {
	return func(c *Converter) { c.maxIntDigits = n }
}

func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ConvertParam converts the value supplied for p. v is nil when the caller
// omitted the parameter.
func (c *Converter) ConvertParam(v *model.Value, p model.ParamDescriptor) (model.Arg, error) {
	if v == nil {
		if p.Optional {
			return model.Arg{State: model.ArgMissing}, nil
		}
		return model.Arg{}, model.ErrMissingArgument
	}
	out, err := c.Convert(*v, p.Type)
	if err != nil {
		return model.Arg{}, err
	}
	if v.IsNull() {
		return model.Arg{State: model.ArgNull, Value: out}, nil
	}
	return model.Arg{State: model.ArgValue, Value: out}, nil
}

// Convert decodes v into a new value of type dst. It never panics.
func (c *Converter) Convert(v model.Value, dst reflect.Type) (out reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = reflect.Value{}, fmt.Errorf("converting %s to %s: %v", v.Kind, dst, r)
		}
	}()

	if v.Kind == model.KindNull {
		if !model.Nullable(dst) {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrNotNullable, dst)
		}
		return reflect.Zero(dst), nil
	}

	switch {
	case dst == rawMessageType:
		return reflect.ValueOf(json.RawMessage(bytes.Clone(v.Raw))), nil
	case dst.Implements(protoMessageType):
		return c.convertProto(v.Raw, dst)
	case dst.Kind() == reflect.Pointer:
		elem, err := c.Convert(v, dst.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(dst.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	switch v.Kind {
	case model.KindNumber:
		return c.convertNumber(v.Raw, dst)
	case model.KindBoolean:
		return c.convertBool(v.Raw, dst)
	case model.KindString:
		return c.convertString(v.Raw, dst)
	default:
		return c.decode(v.Raw, dst)
	}
}

func (c *Converter) convertBool(raw []byte, dst reflect.Type) (reflect.Value, error) {
	b := raw[0] == 't'
	out := reflect.New(dst).Elem()
	switch {
	case hasCustomDecoding(dst):
		return c.decode(raw, dst)
	case dst.Kind() == reflect.Bool:
		out.SetBool(b)
	case isInt(dst):
		out.SetInt(boolToInt(b))
	case isUint(dst):
		out.SetUint(uint64(boolToInt(b)))
	case isFloat(dst):
		out.SetFloat(float64(boolToInt(b)))
	case dst.Kind() == reflect.String:
		if b {
			out.SetString("true")
		} else {
			out.SetString("false")
		}
	default:
		return c.decode(raw, dst)
	}
	return out, nil
}

func (c *Converter) convertString(raw []byte, dst reflect.Type) (reflect.Value, error) {
	if dst.Kind() == reflect.String && !hasCustomDecoding(dst) {
		in := jlexer.Lexer{Data: raw}
		s := in.String()
		if err := in.Error(); err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(dst).Elem()
		out.SetString(s)
		return out, nil
	}
	if reflect.PointerTo(dst).Implements(easyUnmarshalerType) {
		return c.decode(raw, dst)
	}

	// a bare string is decoded as the only element of a one-element array,
	// this lets id-like types (uuid, time) parse themselves from text.
	wrapped := make([]byte, 0, len(raw)+2)
	wrapped = append(wrapped, '[')
	wrapped = append(wrapped, raw...)
	wrapped = append(wrapped, ']')
	slice, err := c.decode(wrapped, reflect.SliceOf(dst))
	if err != nil {
		return reflect.Value{}, err
	}
	if slice.Len() != 1 {
		return reflect.Value{}, fmt.Errorf("%w: string to %s", ErrIncompatible, dst)
	}
	return slice.Index(0), nil
}

// decode is the structured deserialization path for objects, arrays and
// types that decode themselves.
func (c *Converter) decode(raw []byte, dst reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(dst)
	if u, ok := ptr.Interface().(easyjson.Unmarshaler); ok {
		if err := easyjson.Unmarshal(raw, u); err != nil {
			return reflect.Value{}, fmt.Errorf("decoding %s: %w", dst, err)
		}
		return ptr.Elem(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if c.disallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("decoding %s: %w", dst, err)
	}
	return ptr.Elem(), nil
}

func (c *Converter) convertProto(raw []byte, dst reflect.Type) (reflect.Value, error) {
	msg := reflect.New(dst.Elem())
	if err := c.protoOpts.Unmarshal(raw, msg.Interface().(proto.Message)); err != nil {
		return reflect.Value{}, fmt.Errorf("decoding %s: %w", dst, err)
	}
	return msg, nil
}

func hasCustomDecoding(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(easyUnmarshalerType) ||
		pt.Implements(jsonUnmarshalerType) ||
		pt.Implements(textUnmarshalerType)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
