// Package envelopes holds the shared JSON-array framing every wire
// message (EVENT, REQ, CLOSE, OK, EOSE, CLOSED, NOTICE) is built from:
// `["LABEL", ...fields]`, written with no extraneous whitespace. Each
// concrete envelope type lives in its own subpackage and calls back into
// Marshal/Identify/SkipToTheEnd rather than reimplementing the framing.
package envelopes

import (
	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/utils/errorf"
)

// Marshal writes `["label",` then the result of body(nil), then `]`,
// appended to dst.
func Marshal(dst []byte, label string, body func([]byte) []byte) []byte {
	b := dst
	b = append(b, '[', '"')
	b = append(b, label...)
	b = append(b, '"')
	rest := body(nil)
	if len(rest) > 0 {
		b = append(b, ',')
		b = append(b, rest...)
	}
	b = append(b, ']')
	return b
}

// Identify reads the leading `["LABEL"` of a wire frame and returns the
// label and the remainder after the comma that follows it (or starting at
// the closing bracket when the frame has no further fields).
func Identify(b []byte) (label string, rem []byte, err error) {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n') {
		i++
	}
	if i >= len(b) || b[i] != '[' {
		return "", nil, errorf.E("envelope: expected '[', got %q", peek(b, i))
	}
	i++
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n') {
		i++
	}
	if i >= len(b) || b[i] != '"' {
		return "", nil, errorf.E("envelope: expected label string, got %q", peek(b, i))
	}
	s, rest, err := UnmarshalQuoted(b[i:])
	if err != nil {
		return "", nil, err
	}
	j := 0
	for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t' || rest[j] == '\n') {
		j++
	}
	if j < len(rest) && rest[j] == ',' {
		j++
	}
	return string(s), rest[j:], nil
}

func peek(b []byte, i int) string {
	if i >= len(b) {
		return ""
	}
	end := i + 16
	if end > len(b) {
		end = len(b)
	}
	return string(b[i:end])
}

// UnmarshalQuoted parses one JSON string literal at the start of b
// (un-escaping only the NIP-01 escape set), returning the decoded value
// and the remainder following the closing quote.
func UnmarshalQuoted(b []byte) (s []byte, rem []byte, err error) {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n') {
		i++
	}
	if i >= len(b) || b[i] != '"' {
		return nil, nil, errorf.E("envelope: expected opening quote, got %q", peek(b, i))
	}
	i++
	start := i
	for i < len(b) {
		switch b[i] {
		case '\\':
			if i+1 >= len(b) {
				return nil, nil, errorf.E("envelope: unterminated escape")
			}
			switch b[i+1] {
			case 'n':
				s = append(s, '\n')
			case 'r':
				s = append(s, '\r')
			case 't':
				s = append(s, '\t')
			case 'b':
				s = append(s, '\b')
			case 'f':
				s = append(s, '\f')
			case '"':
				s = append(s, '"')
			case '\\':
				s = append(s, '\\')
			default:
				s = append(s, b[i+1])
			}
			i += 2
		case '"':
			rem = b[i+1:]
			return s, rem, nil
		default:
			s = append(s, b[i])
			i++
		}
	}
	_ = start
	return nil, nil, errorf.E("envelope: unterminated string")
}

// SkipToTheEnd advances past any remaining array elements up to and
// including the envelope's closing ']', used after an envelope has
// consumed every field it recognizes.
func SkipToTheEnd(b []byte) (rem []byte, err error) {
	depth := 1
	i := 0
	inStr := false
	for i < len(b) {
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
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return b[i+1:], nil
			}
		}
		i++
	}
	return nil, errorf.E("envelope: unterminated array")
}

// Escape re-exports event.NostrEscape under the name envelope bodies call
// it by, avoiding every subpackage importing the event package just for
// string escaping.
func Escape(dst []byte, s string) []byte { return event.NostrEscape(dst, s) }
