package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jwriter"
	"go.uber.org/multierr"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/ozontech/jrpc/consts"
	"github.com/ozontech/jrpc/model"
)

type Serializer struct {
	protoOpts protojson.MarshalOptions
}

type Option func(*Serializer)

// WithProtoOptions sets the options used for protobuf results and error data.
func WithProtoOptions(opts protojson.MarshalOptions) Option {
	return func(s *Serializer) { s.protoOpts = opts }
}

func New(opts ...Option) *Serializer {
	s := &Serializer{}
	for _, o := range opts {
		o(s)
	}
	return s
}

// MarshalValue encodes a method result or error data.
func (s *Serializer) MarshalValue(v any) ([]byte, error) {
	w := jwriter.Writer{}
	s.writeValue(&w, v)
	return w.BuildBytes()
}

// Serialize renders a single response as a bare object. If error data
// cannot be encoded an InternalError is rendered in its place and the
// encoding error is returned together with the bytes.
func (s *Serializer) Serialize(resp *model.Response) ([]byte, error) {
	w := jwriter.Writer{}
	err := s.writeResponse(&w, resp)
	b, _ := w.BuildBytes()
	return b, err
}

// SerializeBatch renders responses as a JSON array, even a single one.
func (s *Serializer) SerializeBatch(responses []*model.Response) ([]byte, error) {
	var err error
	w := jwriter.Writer{}
	w.RawByte('[')
	for i, resp := range responses {
		if i > 0 {
			w.RawByte(',')
		}
		err = multierr.Append(err, s.writeResponse(&w, resp))
	}
	w.RawByte(']')
	b, _ := w.BuildBytes()
	return b, err
}

func (s *Serializer) writeResponse(out *jwriter.Writer, resp *model.Response) error {
	w := jwriter.Writer{}
	s.writeEnvelope(&w, resp)
	if w.Error == nil {
		out.Buffer.AppendBytes(w.Buffer.BuildBytes())
		return nil
	}

	err := fmt.Errorf("response %s: %w", resp.ID, w.Error)
	s.writeEnvelope(out, model.NewErrorResponse(resp.ID, model.InternalError("internal error")))
	return err
}

func (s *Serializer) writeEnvelope(w *jwriter.Writer, resp *model.Response) {
	w.RawString(`{"id":`)
	resp.ID.MarshalEasyJSON(w)
	w.RawString(`,"jsonrpc":"` + consts.Version + `",`)
	if e := resp.Error; e != nil {
		w.RawString(`"error":{"code":`)
		w.Int(e.Code)
		w.RawString(`,"message":`)
		w.String(e.Message)
		if e.HasData {
			w.RawString(`,"data":`)
			s.writeValue(w, e.Data)
		}
		w.RawString(`}}`)
		return
	}
	w.RawString(`"result":`)
	w.Raw(resp.Result, nil)
	w.RawByte('}')
}

func (s *Serializer) writeValue(w *jwriter.Writer, v any) {
	switch v := v.(type) {
	case nil:
		w.RawString("null")
	case json.RawMessage:
		w.Raw(v, nil)
	case easyjson.Marshaler:
		v.MarshalEasyJSON(w)
	case proto.Message:
		w.Raw(s.protoOpts.Marshal(v))
	default:
		w.Raw(json.Marshal(v))
	}
}
