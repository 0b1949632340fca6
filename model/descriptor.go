package model

import (
	"context"
	"encoding"
	"encoding/json"
	"math/big"
	"reflect"

	"github.com/mailru/easyjson"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/proto"
)

// Func is the invocation thunk of a method. It receives converted arguments
// in declared order.
type Func func(ctx context.Context, args Args) (any, error)

type ParamDescriptor struct {
	Name     string
	Kind     Kind         // declared wire-compatible kind, used by matching
	Type     reflect.Type // destination type, used by conversion
	Optional bool
}

type MethodDescriptor struct {
	Name                  string
	Params                []ParamDescriptor
	Result                reflect.Type // declared return shape, informational
	RequiresAuthorization bool
	Func                  Func
}

type MethodOption func(*MethodDescriptor)

func WithAuthorization() MethodOption {
	return func(d *MethodDescriptor) { d.RequiresAuthorization = true }
}

func WithResult[T any]() MethodOption {
	return func(d *MethodDescriptor) { d.Result = reflect.TypeOf((*T)(nil)).Elem() }
}

func NewMethod(name string, fn Func, params []ParamDescriptor, opts ...MethodOption) *MethodDescriptor {
	d := &MethodDescriptor{Name: name, Params: params, Func: fn}
	for _, o := range opts {
		o(d)
	}
	return d
}

func Param[T any](name string) ParamDescriptor {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return ParamDescriptor{Name: name, Kind: KindOf(t), Type: t}
}

func Optional[T any](name string) ParamDescriptor {
	p := Param[T](name)
	p.Optional = true
	return p
}

var (
	decimalType         = reflect.TypeOf(decimal.Decimal{})
	bigIntType          = reflect.TypeOf(big.Int{})
	jsonNumberType      = reflect.TypeOf(json.Number(""))
	jsonUnmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	easyUnmarshalerType = reflect.TypeOf((*easyjson.Unmarshaler)(nil)).Elem()
	protoMessageType    = reflect.TypeOf((*proto.Message)(nil)).Elem()
	rawMessageType      = reflect.TypeOf(json.RawMessage(nil))
)

// KindOf derives the declared kind of a destination type. Types with their
// own decoding are treated as objects.
func KindOf(t reflect.Type) Kind {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case decimalType, bigIntType, jsonNumberType:
		return KindNumber
	case rawMessageType:
		return KindObject
	}
	pt := reflect.PointerTo(t)
	if pt.Implements(protoMessageType) || pt.Implements(easyUnmarshalerType) ||
		pt.Implements(jsonUnmarshalerType) || pt.Implements(textUnmarshalerType) {
		return KindObject
	}
	switch t.Kind() {
	case reflect.Bool:
		return KindBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Slice, reflect.Array:
		return KindArray
	default:
		return KindObject
	}
}

// Nullable reports whether null is a valid value of t.
func Nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}
