package model

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mailru/easyjson/jwriter"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestKindOfRaw(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	for raw, want := range map[string]Kind{
		` {"a":1}`: KindObject,
		"\n[1]":    KindArray,
		`"s"`:      KindString,
		`true`:     KindBoolean,
		`false`:    KindBoolean,
		`null`:     KindNull,
		`-1`:       KindNumber,
		`0.5e3`:    KindNumber,
	} {
		a.Equal(want, KindOfRaw([]byte(raw)), raw)
	}
	a.Equal("array", KindArray.String())
	a.Equal("unknown", Kind(42).String())
}

func TestKindOf(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	for _, tc := range []struct {
		v    any
		want Kind
	}{
		{true, KindBoolean},
		{int8(1), KindNumber},
		{uint64(1), KindNumber},
		{1.5, KindNumber},
		{"", KindString},
		{[]int{}, KindArray},
		{[3]string{}, KindArray},
		{map[string]int{}, KindObject},
		{struct{}{}, KindObject},
		{decimal.Decimal{}, KindNumber},
		{big.Int{}, KindNumber},
		{json.Number(""), KindNumber},
		{json.RawMessage{}, KindObject},
		{uuid.UUID{}, KindObject},
		{time.Time{}, KindObject},
		{&structpb.Struct{}, KindObject},
		{new(*int), KindNumber},
	} {
		a.Equal(tc.want, KindOf(reflect.TypeOf(tc.v)), "%T", tc.v)
	}
	a.Equal(KindObject, KindOf(reflect.TypeOf((*any)(nil)).Elem()))
}

func TestDescriptor(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	d := NewMethod("M", func(context.Context, Args) (any, error) { return nil, nil },
		[]ParamDescriptor{Param[string]("s"), Optional[*int]("n")},
		WithAuthorization(), WithResult[[]string]())
	a.Equal("M", d.Name)
	a.True(d.RequiresAuthorization)
	a.Equal(reflect.TypeOf([]string{}), d.Result)
	a.Equal(ParamDescriptor{Name: "s", Kind: KindString, Type: reflect.TypeOf("")}, d.Params[0])
	a.True(d.Params[1].Optional)
	a.Equal(KindNumber, d.Params[1].Kind)

	a.True(Nullable(reflect.TypeOf((*int)(nil))))
	a.True(Nullable(reflect.TypeOf([]int(nil))))
	a.False(Nullable(reflect.TypeOf(0)))
	a.False(Nullable(reflect.TypeOf([2]int{})))
}

func TestID(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	a.False(NullID.IsPresent())
	_, ok := NullID.Key()
	a.False(ok)

	s, _ := StringID("1").Key()
	n, _ := NumberID("1").Key()
	f, _ := NumberID("1.0").Key()
	a.NotEqual(s, n)
	a.NotEqual(n, f)
	a.Equal(n, func() string { k, _ := IntID(1).Key(); return k }())

	a.Equal(`"a\"b"`, StringID(`a"b`).String())
	a.Equal("null", NullID.String())

	for id, want := range map[ID]string{
		StringID(`a"b`):   `"a\"b"`,
		NumberID("-1e10"): `-1e10`,
		NullID:            `null`,
	} {
		w := jwriter.Writer{}
		id.MarshalEasyJSON(&w)
		out, err := w.BuildBytes()
		require.NoError(t, err)
		a.Equal(want, string(out))
	}
}

func TestRequestClone(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	body := []byte(`[1,{"a":2}]`)
	req := &Request{ID: IntID(1), Method: "m", Params: Params{
		Present:    true,
		Positional: []Value{NewValue(body[1:2]), NewValue(body[3:10])},
	}}
	c := req.Clone()
	copy(body, "XXXXXXXXXXX")

	a.Equal("1", string(c.Params.Positional[0].Raw))
	a.Equal(`{"a":2}`, string(c.Params.Positional[1].Raw))
	a.Equal(KindObject, c.Params.Positional[1].Kind)
	a.Equal(2, c.Params.Len())

	keyed := Params{Present: true, Keyed: true, Named: []NamedValue{{Name: "a", Value: NewValue([]byte(`"x"`))}}}
	a.Equal(keyed, keyed.Clone())
	a.Equal(Params{}, Params{}.Clone())
}

func TestErrors(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	e := InvalidParams("bad")
	a.Equal(CodeInvalidParams, e.Code)
	a.False(e.HasData)
	a.Equal("jsonrpc error -32602: bad", e.Error())

	withData := e.WithData(nil)
	a.True(withData.HasData)
	a.False(e.HasData, "WithData copies")

	cause := errors.New("cause")
	var err error = &MethodError{Method: "M", Err: cause}
	a.ErrorIs(err, cause)
	a.Equal("method M: cause", err.Error())
	a.Equal("panic: boom", (&PanicError{Value: "boom"}).Error())

	a.True(NewResult(IntID(1), nil).Result != nil)
	a.Equal("null", string(NewResult(IntID(1), nil).Result))
	a.True(NewErrorResponse(NullID, e).IsError())
}

func TestArgs(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	args := Args{
		{State: ArgValue, Value: reflect.ValueOf(5)},
		{State: ArgNull, Value: reflect.Zero(reflect.TypeOf((*string)(nil)))},
		{State: ArgMissing},
	}
	a.True(args.Has(0))
	a.True(args.Has(1))
	a.False(args.Has(2))
	a.False(args.Has(10))
	a.True(args.IsNull(1))

	a.Equal(5, ArgOr(args, 0, 1))
	a.Equal(7, ArgOr(args, 2, 7))
	a.Nil(ArgOr[*string](args, 1, new(string)), "explicit null overrides the default")
	a.Equal(5, ArgAs[int](args, 0))
	a.Equal("", ArgAs[string](args, 2))
	a.Panics(func() { ArgAs[string](args, 0) })
}

func TestFuture(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	v, err := Go(func() (any, error) { return 1, nil }).Await(context.Background())
	a.NoError(err)
	a.Equal(1, v)

	_, err = Go(func() (any, error) { panic("boom") }).Await(context.Background())
	var pe *PanicError
	a.ErrorAs(err, &pe)

	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = Go(func() (any, error) { <-release; return nil, nil }).Await(ctx)
	a.ErrorIs(err, context.DeadlineExceeded)
}
