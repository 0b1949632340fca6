package model

import "reflect"

type ArgState uint8

const (
	ArgMissing ArgState = iota // параметр не передан, метод применяет свое значение по умолчанию
	ArgNull
	ArgValue
)

type Arg struct {
	State ArgState
	Value reflect.Value
}

// Args are converted arguments in declared parameter order.
type Args []Arg

func (a Args) Has(i int) bool {
	return i < len(a) && a[i].State != ArgMissing
}

func (a Args) IsNull(i int) bool {
	return i < len(a) && a[i].State == ArgNull
}

// Value returns the converted argument or nil when it was omitted.
func (a Args) Value(i int) any {
	if !a.Has(i) || !a[i].Value.IsValid() {
		return nil
	}
	return a[i].Value.Interface()
}

// ArgOr returns the i-th argument, or def when the caller omitted it.
// An explicit null yields the zero value of T.
func ArgOr[T any](a Args, i int, def T) T {
	if !a.Has(i) {
		return def
	}
	v, _ := a.Value(i).(T)
	return v
}

// ArgAs returns the i-th argument as T. It panics on a type mismatch, which
// the invoker reports as an internal error of the method.
func ArgAs[T any](a Args, i int) T {
	var zero T
	v := a.Value(i)
	if v == nil {
		return zero
	}
	return v.(T)
}
