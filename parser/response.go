package parser

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mailru/easyjson/jlexer"

	"github.com/ozontech/jrpc/consts"
	"github.com/ozontech/jrpc/model"
)

var (
	ErrResultAndError = errors.New(`response must carry exactly one of "result" and "error"`)
	ErrVersion        = errors.New(`"jsonrpc" must be exactly "2.0"`)
)

// ParseResponses decodes a single response object or a batch of them.
// Results and error data stay raw.
func ParseResponses(body []byte) (responses []*model.Response, isBulk bool, err error) {
	if firstByte(body) == '[' {
		isBulk = true
		in := jlexer.Lexer{Data: body}
		in.Delim('[')
		for !in.IsDelim(']') {
			raw := in.Raw()
			if in.Ok() {
				resp, err := parseResponse(raw)
				if err != nil {
					return nil, true, fmt.Errorf("response #%d: %w", len(responses)+1, err)
				}
				responses = append(responses, resp)
			}
			in.WantComma()
		}
		in.Delim(']')
		in.Consumed()
		if err := in.Error(); err != nil {
			return nil, true, fmt.Errorf("batch: %w", err)
		}
		return responses, true, nil
	}

	resp, err := parseResponse(body)
	if err != nil {
		return nil, false, err
	}
	return []*model.Response{resp}, false, nil
}

func parseResponse(raw []byte) (*model.Response, error) {
	var (
		resp       model.Response
		version    string
		idErr      *model.Error
		hasResult  bool
		hasErrorV  bool
		errorIsNil bool
	)

	in := jlexer.Lexer{Data: raw}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "jsonrpc":
			version = in.String()
		case "id":
			resp.ID, idErr = parseID(in.Raw())
		case "result":
			hasResult = true
			resp.Result = in.Raw()
		case "error":
			hasErrorV = true
			if in.IsNull() {
				in.Skip()
				errorIsNil = true
				break
			}
			resp.Error = parseErrorObject(&in)
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	in.Consumed()

	if err := in.Error(); err != nil {
		return nil, err
	}
	if idErr != nil {
		return nil, idErr
	}
	if version != consts.Version {
		return nil, ErrVersion
	}
	if hasResult == (hasErrorV && !errorIsNil) {
		return nil, ErrResultAndError
	}
	return &resp, nil
}

func parseErrorObject(in *jlexer.Lexer) *model.Error {
	e := &model.Error{}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		switch key {
		case "code":
			e.Code = in.Int()
		case "message":
			e.Message = in.String()
		case "data":
			e.Data, e.HasData = json.RawMessage(in.Raw()), true
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	return e
}
