package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozontech/jrpc/model"
)

func TestParseResponses(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	responses, isBulk, err := ParseResponses([]byte(`{"id":"q","jsonrpc":"2.0","result":{"a":[1,2]}}`))
	require.NoError(t, err)
	a.False(isBulk)
	require.Len(t, responses, 1)
	a.Equal(model.StringID("q"), responses[0].ID)
	a.JSONEq(`{"a":[1,2]}`, string(responses[0].Result))

	responses, isBulk, err = ParseResponses([]byte(`[
		{"id":1,"jsonrpc":"2.0","result":null,"error":null},
		{"id":null,"jsonrpc":"2.0","error":{"code":-32600,"message":"bad","data":{"why":"x"}}},
		{"id":3,"jsonrpc":"2.0","error":{"code":-32000,"message":"Unauthorized"}}
	]`))
	require.NoError(t, err)
	a.True(isBulk)
	require.Len(t, responses, 3)

	a.False(responses[0].IsError())
	a.Equal("null", string(responses[0].Result))

	e := responses[1].Error
	require.NotNil(t, e)
	a.Equal(model.NullID, responses[1].ID)
	a.Equal(model.CodeInvalidRequest, e.Code)
	a.Equal("bad", e.Message)
	a.True(e.HasData)
	a.JSONEq(`{"why":"x"}`, string(e.Data.(json.RawMessage)))

	a.False(responses[2].Error.HasData)
}

func TestParseResponsesErrors(t *testing.T) {
	t.Parallel()

	for body, want := range map[string]error{
		`{"id":1,"jsonrpc":"2.0"}`: ErrResultAndError,
		`{"id":1,"jsonrpc":"2.0","result":1,"error":{"code":1,"message":"x"}}`: ErrResultAndError,
		`{"id":1,"jsonrpc":"1.0","result":1}`:                                  ErrVersion,
		`[{"id":1,"jsonrpc":"2.0","result":1},{"id":2,"jsonrpc":"2.0"}]`:       ErrResultAndError,
	} {
		_, _, err := ParseResponses([]byte(body))
		assert.ErrorIs(t, err, want, body)
	}

	for _, body := range []string{`{"id":1,`, `[{"id":1,"jsonrpc":"2.0","result":1}`, `{"id":[1],"jsonrpc":"2.0","result":1}`} {
		_, _, err := ParseResponses([]byte(body))
		assert.Error(t, err, body)
	}
}
