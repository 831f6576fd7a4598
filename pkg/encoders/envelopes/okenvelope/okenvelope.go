// Package okenvelope implements the relay-to-client OK envelope:
// `["OK", <event_id>, <bool>, <prefixed_reason>]`.
package okenvelope

import (
	"io"

	"github.com/nostrcore/relay/pkg/encoders/envelopes"
	"github.com/nostrcore/relay/pkg/encoders/hex"
)

const L = "OK"

type T struct {
	EventID []byte
	OK      bool
	Reason  string
}

func New() *T { return &T{} }
func NewFrom(eventID []byte, ok bool, reason string) *T {
	return &T{EventID: eventID, OK: ok, Reason: reason}
}

func (en *T) Label() string { return L }

func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

func (en *T) Marshal(dst []byte) []byte {
	return envelopes.Marshal(dst, L, func(b []byte) []byte {
		b = append(b, '"')
		b = hex.EncAppend(b, en.EventID)
		b = append(b, '"', ',')
		if en.OK {
			b = append(b, "true"...)
		} else {
			b = append(b, "false"...)
		}
		b = append(b, ',', '"')
		b = envelopes.Escape(b, en.Reason)
		b = append(b, '"')
		return b
	})
}

func (en *T) Unmarshal(b []byte) (rem []byte, err error) {
	var idHex []byte
	if idHex, rem, err = envelopes.UnmarshalQuoted(b); err != nil {
		return nil, err
	}
	if en.EventID, err = hex.Dec(idHex); err != nil {
		return nil, err
	}
	rem = skipComma(rem)
	if len(rem) >= 4 && string(rem[:4]) == "true" {
		en.OK = true
		rem = rem[4:]
	} else if len(rem) >= 5 && string(rem[:5]) == "false" {
		en.OK = false
		rem = rem[5:]
	}
	rem = skipComma(rem)
	var reason []byte
	if reason, rem, err = envelopes.UnmarshalQuoted(rem); err != nil {
		return nil, err
	}
	en.Reason = string(reason)
	return envelopes.SkipToTheEnd(rem)
}

func skipComma(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == ',') {
		i++
	}
	return b[i:]
}
