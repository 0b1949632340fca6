package model

// Response carries exactly one of Result and Error. Result holds the
// already encoded JSON value.
type Response struct {
	ID     ID
	Result []byte
	Error  *Error
}

func NewResult(id ID, result []byte) *Response {
	if len(result) == 0 {
		result = []byte("null")
	}
	return &Response{ID: id, Result: result}
}

func NewErrorResponse(id ID, err *Error) *Response {
	return &Response{ID: id, Error: err}
}

func (r *Response) IsError() bool { return r.Error != nil }
