// Package reqenvelope implements the client-to-relay REQ envelope:
// `["REQ", <sub_id>, <filter-json>, ...]`.
package reqenvelope

import (
	"io"

	"github.com/nostrcore/relay/pkg/encoders/envelopes"
	"github.com/nostrcore/relay/pkg/encoders/filter"
	"github.com/nostrcore/relay/pkg/utils/errorf"
)

const L = "REQ"

type T struct {
	Subscription string
	Filters      filter.S
}

func New() *T { return &T{} }

func (en *T) Label() string { return L }

func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

func (en *T) Marshal(dst []byte) []byte {
	return envelopes.Marshal(dst, L, func(b []byte) []byte {
		b = append(b, '"')
		b = envelopes.Escape(b, en.Subscription)
		b = append(b, '"')
		for _, f := range en.Filters {
			b = append(b, ',')
			b = f.MarshalJSON(b)
		}
		return b
	})
}

// Unmarshal parses a REQ's subscription id and compiles each filter JSON
// object that follows it. A filter that fails to compile fails the whole
// envelope; Subscription is already set by then, so the caller
// (pkg/protocol/socketapi) can refuse that subscription id with CLOSED.
func (en *T) Unmarshal(b []byte) (rem []byte, err error) {
	var sub []byte
	if sub, rem, err = envelopes.UnmarshalQuoted(b); err != nil {
		return nil, err
	}
	en.Subscription = string(sub)
	en.Filters = nil

	for {
		rem = skipComma(rem)
		if len(rem) == 0 {
			return nil, errorf.E("reqenvelope: unterminated array")
		}
		if rem[0] == ']' {
			return rem[1:], nil
		}
		var raw []byte
		if raw, rem, err = extractObject(rem); err != nil {
			return nil, err
		}
		f, ferr := filter.Compile(raw)
		if ferr != nil {
			return nil, ferr
		}
		en.Filters = append(en.Filters, f)
	}
}

func skipComma(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == ',') {
		i++
	}
	return b[i:]
}

// extractObject returns the raw bytes of one top-level JSON object
// starting at b[0] == '{', and the remainder after its closing brace.
func extractObject(b []byte) (obj []byte, rem []byte, err error) {
	if len(b) == 0 || b[0] != '{' {
		return nil, nil, errorf.E("reqenvelope: expected filter object")
	}
	depth := 0
	inStr := false
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case inStr:
			if c == '\\' {
				i++
			} else if c == '"' {
				inStr = false
			}
		case c == '"':
			inStr = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return b[:i+1], b[i+1:], nil
			}
		}
	}
	return nil, nil, errorf.E("reqenvelope: unterminated filter object")
}
