package envelopes

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalFraming(t *testing.T) {
	got := Marshal(nil, "EOSE", func(b []byte) []byte {
		b = append(b, '"')
		b = Escape(b, "sub1")
		b = append(b, '"')
		return b
	})
	require.Equal(t, `["EOSE","sub1"]`, string(got))
}

func TestIdentify(t *testing.T) {
	label, rem, err := Identify([]byte(`["REQ","sub1",{}]`))
	require.NoError(t, err)
	require.Equal(t, "REQ", label)
	require.Equal(t, `"sub1",{}]`, string(rem))
}

func TestUnmarshalQuotedEscapes(t *testing.T) {
	s, rem, err := UnmarshalQuoted([]byte(`"a\nb\"c"]`))
	require.NoError(t, err)
	require.Equal(t, "a\nb\"c", string(s))
	require.Equal(t, `]`, string(rem))
}

func TestSkipToTheEnd(t *testing.T) {
	rem, err := SkipToTheEnd([]byte(`{"a":1}]trailing`))
	require.NoError(t, err)
	require.Equal(t, "trailing", string(rem))
}
