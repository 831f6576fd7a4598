// Package eoseenvelope implements the relay-to-client EOSE envelope:
// `["EOSE", <sub_id>]`, marking the end of a subscription's stored-event
// replay.
package eoseenvelope

import (
	"io"

	"github.com/nostrcore/relay/pkg/encoders/envelopes"
)

const L = "EOSE"

type T struct {
	Subscription string
}

func New() *T                      { return &T{} }
func NewFrom(subID string) *T      { return &T{Subscription: subID} }
func (en *T) Label() string        { return L }

func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

func (en *T) Marshal(dst []byte) []byte {
	return envelopes.Marshal(dst, L, func(b []byte) []byte {
		b = append(b, '"')
		b = envelopes.Escape(b, en.Subscription)
		b = append(b, '"')
		return b
	})
}

func (en *T) Unmarshal(b []byte) (rem []byte, err error) {
	var sub []byte
	if sub, rem, err = envelopes.UnmarshalQuoted(b); err != nil {
		return nil, err
	}
	en.Subscription = string(sub)
	return envelopes.SkipToTheEnd(rem)
}
