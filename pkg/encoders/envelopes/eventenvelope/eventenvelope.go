// Package eventenvelope implements the EVENT envelope in both directions:
// client-to-relay (a submitted event, no subscription id) and
// relay-to-client (a replay/live match tagged with its subscription id).
package eventenvelope

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nostrcore/relay/pkg/encoders/envelopes"
	"github.com/nostrcore/relay/pkg/encoders/event"
)

const L = "EVENT"

// Submission is the client-to-relay form: `["EVENT", <event-json>]`.
type Submission struct {
	Event *event.E
}

func NewSubmission() *Submission                         { return &Submission{Event: event.New()} }
func NewSubmissionWith(ev *event.E) *Submission           { return &Submission{Event: ev} }
func (en *Submission) Label() string                      { return L }
func (en *Submission) Write(w io.Writer) (err error)      { _, err = w.Write(en.Marshal(nil)); return }
func (en *Submission) Marshal(dst []byte) []byte {
	return envelopes.Marshal(dst, L, en.Event.Marshal)
}
func (en *Submission) Unmarshal(b []byte) (rem []byte, err error) {
	en.Event = event.New()
	var obj []byte
	if obj, rem, err = splitObject(b); err != nil {
		return nil, err
	}
	if err = en.Event.Unmarshal(obj); err != nil {
		return nil, err
	}
	return envelopes.SkipToTheEnd(rem)
}

// splitObject returns the JSON value at the start of b and the bytes that
// follow it.
func splitObject(b []byte) (obj, rem []byte, err error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var raw json.RawMessage
	if err = dec.Decode(&raw); err != nil {
		return nil, nil, err
	}
	return raw, b[dec.InputOffset():], nil
}

// Result is the relay-to-client form: `["EVENT", <sub_id>, <event-json>]`.
type Result struct {
	Subscription string
	Event        *event.E
}

func NewResult() *Result { return &Result{Event: event.New()} }
func NewResultWith(subID string, ev *event.E) (*Result, error) {
	return &Result{Subscription: subID, Event: ev}, nil
}
func (en *Result) Label() string                 { return L }
func (en *Result) Write(w io.Writer) (err error)  { _, err = w.Write(en.Marshal(nil)); return }
func (en *Result) Marshal(dst []byte) []byte {
	return envelopes.Marshal(dst, L, func(b []byte) []byte {
		b = append(b, '"')
		b = envelopes.Escape(b, en.Subscription)
		b = append(b, '"', ',')
		b = en.Event.Marshal(b)
		return b
	})
}
func (en *Result) Unmarshal(b []byte) (rem []byte, err error) {
	var sub []byte
	if sub, rem, err = envelopes.UnmarshalQuoted(b); err != nil {
		return nil, err
	}
	en.Subscription = string(sub)
	if len(rem) > 0 && rem[0] == ',' {
		rem = rem[1:]
	}
	en.Event = event.New()
	var obj []byte
	if obj, rem, err = splitObject(rem); err != nil {
		return nil, err
	}
	if err = en.Event.Unmarshal(obj); err != nil {
		return nil, err
	}
	return envelopes.SkipToTheEnd(rem)
}
