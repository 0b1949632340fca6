package model

import (
	"errors"
	"fmt"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeUnauthorized   = -32000
)

// Error is a JSON-RPC error object. Methods may return it to choose the
// code sent to the caller.
type Error struct {
	Code    int
	Message string
	Data    any
	HasData bool // Data is emitted only when set, even if it is nil
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) WithData(data any) *Error {
	c := *e
	c.Data, c.HasData = data, true
	return &c
}

func ParseError(msg string) *Error     { return NewError(CodeParseError, msg) }
func InvalidRequest(msg string) *Error { return NewError(CodeInvalidRequest, msg) }
func MethodNotFound(msg string) *Error { return NewError(CodeMethodNotFound, msg) }
func InvalidParams(msg string) *Error  { return NewError(CodeInvalidParams, msg) }
func InternalError(msg string) *Error  { return NewError(CodeInternalError, msg) }
func Unauthorized(msg string) *Error   { return NewError(CodeUnauthorized, msg) }

// MethodError marks a failure raised by the target method itself, as
// opposed to a failure of the dispatch machinery around it.
type MethodError struct {
	Method string
	Err    error
}

func (e *MethodError) Error() string {
	return fmt.Sprintf("method %s: %s", e.Method, e.Err)
}

func (e *MethodError) Unwrap() error { return e.Err }

// PanicError is stored in MethodError.Err when the method panicked.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

var ErrMissingArgument = errors.New("missing required argument")
