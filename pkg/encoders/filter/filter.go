// Package filter compiles a REQ filter object and evaluates stored or
// live events against it.
package filter

import (
	"encoding/json"
	"sort"

	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/hex"
	"github.com/nostrcore/relay/pkg/utils/errorf"
)

// T is one filter: every present component narrows the match; an absent
// component means "no constraint". A zero-value T (nothing set) matches
// every event.
type T struct {
	IDs     [][]byte
	Authors [][]byte
	Kinds   []uint16
	Since   *uint64
	Until   *uint64
	Limit   *uint
	Tags    map[byte][]string // "#x" constraints keyed by the letter x

	hasIDs, hasAuthors, hasKinds bool
}

// S is an ordered set of filters; a set matches an event iff any one
// filter in it matches (OR semantics).
type S []*T

// Compile parses a single filter JSON object. Unrecognized keys are
// ignored except "#x" with x a single ASCII letter, which becomes a tag
// constraint.
func Compile(raw []byte) (f *T, err error) {
	var generic map[string]json.RawMessage
	if err = json.Unmarshal(raw, &generic); err != nil {
		return nil, errorf.E("filter: invalid JSON object: %w", err)
	}
	f = &T{Tags: map[byte][]string{}}

	if v, ok := generic["ids"]; ok {
		var ss []string
		if err = json.Unmarshal(v, &ss); err != nil {
			return nil, errorf.E("filter: ids: %w", err)
		}
		f.hasIDs = true
		for _, s := range ss {
			var b []byte
			if b, err = decodeHex64(s); err != nil {
				return nil, errorf.E("filter: ids: %w", err)
			}
			f.IDs = append(f.IDs, b)
		}
	}
	if v, ok := generic["authors"]; ok {
		var ss []string
		if err = json.Unmarshal(v, &ss); err != nil {
			return nil, errorf.E("filter: authors: %w", err)
		}
		f.hasAuthors = true
		for _, s := range ss {
			var b []byte
			if b, err = decodeHex64(s); err != nil {
				return nil, errorf.E("filter: authors: %w", err)
			}
			f.Authors = append(f.Authors, b)
		}
	}
	if v, ok := generic["kinds"]; ok {
		if err = json.Unmarshal(v, &f.Kinds); err != nil {
			return nil, errorf.E("filter: kinds: %w", err)
		}
		f.hasKinds = true
	}
	if v, ok := generic["since"]; ok {
		var u uint64
		if err = json.Unmarshal(v, &u); err != nil {
			return nil, errorf.E("filter: since: %w", err)
		}
		f.Since = &u
	}
	if v, ok := generic["until"]; ok {
		var u uint64
		if err = json.Unmarshal(v, &u); err != nil {
			return nil, errorf.E("filter: until: %w", err)
		}
		f.Until = &u
	}
	if v, ok := generic["limit"]; ok {
		var u uint
		if err = json.Unmarshal(v, &u); err != nil {
			return nil, errorf.E("filter: limit: %w", err)
		}
		f.Limit = &u
	}
	for k, v := range generic {
		if len(k) == 2 && k[0] == '#' && isASCIILetter(k[1]) {
			var ss []string
			if err = json.Unmarshal(v, &ss); err != nil {
				return nil, errorf.E("filter: %s: %w", k, err)
			}
			f.Tags[k[1]] = ss
		}
	}
	return f, nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decodeHex64(s string) ([]byte, error) {
	if !hex.IsLowerHexOfLen([]byte(s), 64) {
		return nil, errorf.E("expected 64 lowercase hex characters, got %q", s)
	}
	return hex.Dec([]byte(s))
}

// ClampLimit applies the limit policy: absent means defaultLimit,
// present is clamped to maxLimit.
func (f *T) ClampLimit(defaultLimit, maxLimit uint) uint {
	if f.Limit == nil {
		if defaultLimit > maxLimit {
			return maxLimit
		}
		return defaultLimit
	}
	if *f.Limit > maxLimit {
		return maxLimit
	}
	return *f.Limit
}

// Matches reports whether e satisfies every present constraint in f.
func (f *T) Matches(e *event.E) bool {
	if f.hasIDs && !hasBytes(f.IDs, e.ID) {
		return false
	}
	if f.hasAuthors && !hasBytes(f.Authors, e.Pubkey) {
		return false
	}
	if f.hasKinds && !hasKind(f.Kinds, e.Kind.K) {
		return false
	}
	if f.Since != nil && e.CreatedAt.U64() < *f.Since {
		return false
	}
	if f.Until != nil && e.CreatedAt.U64() > *f.Until {
		return false
	}
	for letter, values := range f.Tags {
		if !tagMatches(e, letter, values) {
			return false
		}
	}
	return true
}

func tagMatches(e *event.E, letter byte, values []string) bool {
	name := string(letter)
	for _, t := range e.Tags.GetAll(name) {
		v := t.Value()
		for _, want := range values {
			if v == want {
				return true
			}
		}
	}
	return false
}

func hasBytes(set [][]byte, v []byte) bool {
	for _, s := range set {
		if len(s) == len(v) {
			eq := true
			for i := range s {
				if s[i] != v[i] {
					eq = false
					break
				}
			}
			if eq {
				return true
			}
		}
	}
	return false
}

func hasKind(set []uint16, k uint16) bool {
	for _, s := range set {
		if s == k {
			return true
		}
	}
	return false
}

// Matches reports whether any filter in s matches e (OR semantics). An
// empty set matches nothing; a set containing one zero-value filter
// matches everything.
func (s S) Matches(e *event.E) bool {
	for _, f := range s {
		if f.Matches(e) {
			return true
		}
	}
	return false
}

// MarshalJSON appends f's JSON object form to dst. Used for logging and
// for a relay's own REQ envelope when it forwards a subscription
// onward.
func (f *T) MarshalJSON(dst []byte) []byte {
	b := append(dst, '{')
	first := true
	comma := func() {
		if !first {
			b = append(b, ',')
		}
		first = false
	}
	if f.hasIDs {
		comma()
		b = append(b, `"ids":[`...)
		for i, id := range f.IDs {
			if i > 0 {
				b = append(b, ',')
			}
			b = append(b, '"')
			b = hex.EncAppend(b, id)
			b = append(b, '"')
		}
		b = append(b, ']')
	}
	if f.hasAuthors {
		comma()
		b = append(b, `"authors":[`...)
		for i, a := range f.Authors {
			if i > 0 {
				b = append(b, ',')
			}
			b = append(b, '"')
			b = hex.EncAppend(b, a)
			b = append(b, '"')
		}
		b = append(b, ']')
	}
	if f.hasKinds {
		comma()
		b = append(b, `"kinds":[`...)
		for i, k := range f.Kinds {
			if i > 0 {
				b = append(b, ',')
			}
			b = appendUint(b, uint64(k))
		}
		b = append(b, ']')
	}
	if f.Since != nil {
		comma()
		b = append(b, `"since":`...)
		b = appendUint(b, *f.Since)
	}
	if f.Until != nil {
		comma()
		b = append(b, `"until":`...)
		b = appendUint(b, *f.Until)
	}
	if f.Limit != nil {
		comma()
		b = append(b, `"limit":`...)
		b = appendUint(b, uint64(*f.Limit))
	}
	for letter, values := range f.Tags {
		comma()
		b = append(b, '"', '#', letter, '"', ':', '[')
		for i, v := range values {
			if i > 0 {
				b = append(b, ',')
			}
			b = append(b, '"')
			b = append(b, v...)
			b = append(b, '"')
		}
		b = append(b, ']')
	}
	b = append(b, '}')
	return b
}

func appendUint(dst []byte, u uint64) []byte {
	if u == 0 {
		return append(dst, '0')
	}
	var tmp [20]byte
	i := len(tmp)
	for u > 0 {
		i--
		tmp[i] = byte('0' + u%10)
		u /= 10
	}
	return append(dst, tmp[i:]...)
}

// SortReplay orders a replay result set by created_at descending, ties
// broken by id ascending.
func SortReplay(events event.S) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.CreatedAt.U64() != b.CreatedAt.U64() {
			return a.CreatedAt.U64() > b.CreatedAt.U64()
		}
		return lessBytes(a.ID, b.ID)
	})
}

func lessBytes(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
