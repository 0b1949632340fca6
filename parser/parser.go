// Package parser turns JSON-RPC payloads into requests without decoding
// parameter values: every parameter is kept as a raw view into the body
// together with its coarse kind.
package parser

import (
	"context"
	"errors"

	"github.com/mailru/easyjson/jlexer"

	"github.com/ozontech/jrpc/consts"
	"github.com/ozontech/jrpc/model"
)

// Result is either a valid request or an error for one element. ID is
// filled whenever the element carried a usable id. NullReply marks errors
// that must be answered with a null id: the element was not an object or
// its id member could not be used.
type Result struct {
	Request   *model.Request
	ID        model.ID
	Err       *model.Error
	NullReply bool
}

type Batch struct {
	Results []Result
	IsBulk  bool
}

type Parser struct {
	maxBatchSize int
}

type Option func(*Parser)

// WithMaxBatchSize limits the number of elements in a batch. 0 means unlimited.
func WithMaxBatchSize(n int) Option {
	return func(p *Parser) { p.maxBatchSize = n }
}

func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, o := range opts {
		o(p)
	}
	return p
}

var (
	errEmptyBody     = model.InvalidRequest("empty request body")
	errEmptyBatch    = model.InvalidRequest("empty batch")
	errNotContainer  = model.InvalidRequest("request must be an object or an array")
	errBatchTooLarge = model.InvalidRequest("batch size exceeds limit")
	errDuplicateID   = model.InvalidRequest("duplicate request id in batch")
)

// Parse parses body. A non-nil error is either fatal for the whole payload
// (*model.Error, to be answered with a single null-id response) or the
// context error.
func (p *Parser) Parse(ctx context.Context, body []byte) (Batch, error) {
	first := firstByte(body)
	switch first {
	case 0:
		return Batch{}, errEmptyBody
	case '[':
		return p.parseBatch(ctx, body)
	case '{':
	default:
		if !validJSON(body) {
			return Batch{}, model.ParseError("parse error")
		}
		return Batch{}, errNotContainer
	}

	in := jlexer.Lexer{Data: body}
	raw := in.Raw()
	in.Consumed()
	if err := in.Error(); err != nil {
		return Batch{}, model.ParseError("parse error")
	}
	return Batch{Results: []Result{parseElement(raw)}}, nil
}

func (p *Parser) parseBatch(ctx context.Context, body []byte) (Batch, error) {
	batch := Batch{IsBulk: true}

	var elements [][]byte
	in := jlexer.Lexer{Data: body}
	in.Delim('[')
	for !in.IsDelim(']') {
		elements = append(elements, in.Raw())
		in.WantComma()
	}
	in.Delim(']')
	in.Consumed()
	if err := in.Error(); err != nil {
		return batch, model.ParseError("parse error")
	}

	if len(elements) == 0 {
		return batch, errEmptyBatch
	}
	if p.maxBatchSize > 0 && len(elements) > p.maxBatchSize {
		return batch, errBatchTooLarge
	}

	batch.Results = make([]Result, len(elements))
	for i, raw := range elements {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		batch.Results[i] = parseElement(raw)
	}

	seen := make(map[string]struct{}, len(batch.Results))
	for _, r := range batch.Results {
		key, ok := r.ID.Key()
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			return batch, errDuplicateID
		}
		seen[key] = struct{}{}
	}
	return batch, nil
}

func parseElement(raw []byte) Result {
	if model.KindOfRaw(raw) != model.KindObject {
		return Result{Err: model.InvalidRequest("request must be an object"), NullReply: true}
	}

	var (
		id                   model.ID
		idErr                *model.Error
		version, method      string
		hasVersion           bool
		hasMethod, badMethod bool
		params               model.Params
		paramsErr            *model.Error
	)

	in := jlexer.Lexer{Data: raw}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "jsonrpc":
			v := in.Raw()
			hasVersion = model.KindOfRaw(v) == model.KindString
			if hasVersion {
				version = unquote(v)
			}
		case "id":
			v := in.Raw()
			id, idErr = parseID(v)
		case "method":
			v := in.Raw()
			hasMethod = true
			if model.KindOfRaw(v) == model.KindString {
				method = unquote(v)
			} else {
				badMethod = true
			}
		case "params":
			v := in.Raw()
			params, paramsErr = parseParams(v)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()
	if err := in.Error(); err != nil {
		return Result{ID: id, Err: model.ParseError("parse error")}
	}

	switch {
	case idErr != nil:
		return Result{Err: idErr, NullReply: true}
	case !hasVersion || version != consts.Version:
		return Result{ID: id, Err: model.InvalidRequest(`"jsonrpc" must be exactly "2.0"`)}
	case !hasMethod || badMethod || method == "":
		return Result{ID: id, Err: model.InvalidRequest(`"method" must be a non-empty string`)}
	case paramsErr != nil:
		return Result{ID: id, Err: paramsErr}
	}

	return Result{
		ID:      id,
		Request: &model.Request{ID: id, Method: method, Params: params},
	}
}

func parseID(raw []byte) (model.ID, *model.Error) {
	switch model.KindOfRaw(raw) {
	case model.KindString:
		return model.StringID(unquote(raw)), nil
	case model.KindNumber:
		return model.NumberID(string(raw)), nil
	case model.KindNull:
		return model.NullID, nil
	default:
		return model.NullID, model.ParseError(`"id" must be a string or a number`)
	}
}

func parseParams(raw []byte) (model.Params, *model.Error) {
	in := jlexer.Lexer{Data: raw}
	switch model.KindOfRaw(raw) {
	case model.KindArray:
		params := model.Params{Present: true, Positional: []model.Value{}}
		in.Delim('[')
		for !in.IsDelim(']') {
			params.Positional = append(params.Positional, model.NewValue(in.Raw()))
			in.WantComma()
		}
		in.Delim(']')
		if in.Error() != nil {
			return model.Params{}, model.ParseError("malformed params")
		}
		return params, nil
	case model.KindObject:
		params := model.Params{Present: true, Keyed: true, Named: []model.NamedValue{}}
		in.Delim('{')
		for !in.IsDelim('}') {
			name := in.String()
			in.WantColon()
			params.Named = setNamed(params.Named, name, model.NewValue(in.Raw()))
			in.WantComma()
		}
		in.Delim('}')
		if in.Error() != nil {
			return model.Params{}, model.ParseError("malformed params")
		}
		return params, nil
	default:
		return model.Params{}, model.InvalidRequest(`"params" must be an array or an object`)
	}
}

// setNamed keeps the last value of a repeated key.
func setNamed(named []model.NamedValue, name string, v model.Value) []model.NamedValue {
	for i := range named {
		if named[i].Name == name {
			named[i].Value = v
			return named
		}
	}
	return append(named, model.NamedValue{Name: name, Value: v})
}

func unquote(raw []byte) string {
	in := jlexer.Lexer{Data: raw}
	return in.String()
}

func validJSON(b []byte) bool {
	in := jlexer.Lexer{Data: b}
	in.SkipRecursive()
	in.Consumed()
	return in.Error() == nil
}

func firstByte(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		default:
			return c
		}
	}
	return 0
}

// IsFatal reports whether err is a protocol error for the whole payload.
func IsFatal(err error) (*model.Error, bool) {
	var rpcErr *model.Error
	if errors.As(err, &rpcErr) {
		return rpcErr, true
	}
	return nil, false
}
