package model

// Request is a parsed request. It must not be modified after parsing.
type Request struct {
	ID     ID
	Method string
	Params Params
}

func (r *Request) IsNotification() bool { return !r.ID.IsPresent() }

// Clone copies every raw view so the request outlives its body buffer.
func (r *Request) Clone() *Request {
	return &Request{ID: r.ID, Method: r.Method, Params: r.Params.Clone()}
}
