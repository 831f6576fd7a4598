// Package noticeenvelope implements the relay-to-client NOTICE envelope:
// `["NOTICE", <message>]`, used for framing/parse failures and for
// answering known-but-unsupported discriminators (AUTH, COUNT, NEG-*).
package noticeenvelope

import (
	"io"

	"github.com/nostrcore/relay/pkg/encoders/envelopes"
)

const L = "NOTICE"

type T struct {
	Message string
}

func New() *T                  { return &T{} }
func NewFrom(msg string) *T    { return &T{Message: msg} }
func (en *T) Label() string    { return L }

func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

func (en *T) Marshal(dst []byte) []byte {
	return envelopes.Marshal(dst, L, func(b []byte) []byte {
		b = append(b, '"')
		b = envelopes.Escape(b, en.Message)
		b = append(b, '"')
		return b
	})
}

func (en *T) Unmarshal(b []byte) (rem []byte, err error) {
	var msg []byte
	if msg, rem, err = envelopes.UnmarshalQuoted(b); err != nil {
		return nil, err
	}
	en.Message = string(msg)
	return envelopes.SkipToTheEnd(rem)
}
