// Package closedenvelope implements the relay-to-client CLOSED envelope:
// `["CLOSED", <sub_id>, <prefixed_reason>]`, used to refuse or end a
// subscription (invalid id, too many subscriptions, a compile error).
package closedenvelope

import (
	"io"

	"github.com/nostrcore/relay/pkg/encoders/envelopes"
)

const L = "CLOSED"

type T struct {
	Subscription string
	Reason       string
}

func New() *T { return &T{} }
func NewFrom(subID, reason string) *T { return &T{Subscription: subID, Reason: reason} }

func (en *T) Label() string { return L }

func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

func (en *T) Marshal(dst []byte) []byte {
	return envelopes.Marshal(dst, L, func(b []byte) []byte {
		b = append(b, '"')
		b = envelopes.Escape(b, en.Subscription)
		b = append(b, `","`...)
		b = envelopes.Escape(b, en.Reason)
		b = append(b, '"')
		return b
	})
}

func (en *T) Unmarshal(b []byte) (rem []byte, err error) {
	var sub, reason []byte
	if sub, rem, err = envelopes.UnmarshalQuoted(b); err != nil {
		return nil, err
	}
	if len(rem) > 0 && rem[0] == ',' {
		rem = rem[1:]
	}
	if reason, rem, err = envelopes.UnmarshalQuoted(rem); err != nil {
		return nil, err
	}
	en.Subscription = string(sub)
	en.Reason = string(reason)
	return envelopes.SkipToTheEnd(rem)
}
