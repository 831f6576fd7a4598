package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/hex"
	"github.com/nostrcore/relay/pkg/encoders/tag"
)

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}

func mkEvent(pubkeyHex string, createdAt uint64, kind uint16, content string, tags ...*tag.T) *event.E {
	e := event.New()
	e.Pubkey, _ = hex.Dec([]byte(pubkeyHex))
	e.CreatedAt.Unmarshal([]byte(itoa(createdAt)))
	e.Kind.K = kind
	e.Content = content
	for _, t := range tags {
		e.Tags.Append(t)
	}
	e.SetID()
	return e
}

func itoa(u uint64) string {
	if u == 0 {
		return "0"
	}
	var b []byte
	for u > 0 {
		b = append([]byte{byte('0' + u%10)}, b...)
		u /= 10
	}
	return string(b)
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	f, err := Compile([]byte(`{}`))
	require.NoError(t, err)
	e := mkEvent(repeat("ab", 32), 100, 1, "x")
	require.True(t, f.Matches(e))
}

func TestCompileAuthorsAndKinds(t *testing.T) {
	author := repeat("ab", 32)
	f, err := Compile([]byte(`{"authors":["` + author + `"],"kinds":[1,2]}`))
	require.NoError(t, err)

	match := mkEvent(author, 100, 1, "x")
	require.True(t, f.Matches(match))

	wrongKind := mkEvent(author, 100, 3, "x")
	require.False(t, f.Matches(wrongKind))

	wrongAuthor := mkEvent(repeat("cd", 32), 100, 1, "x")
	require.False(t, f.Matches(wrongAuthor))
}

func TestCompileRejectsBadHexLength(t *testing.T) {
	_, err := Compile([]byte(`{"ids":["deadbeef"]}`))
	require.Error(t, err)
}

func TestSinceUntil(t *testing.T) {
	f, err := Compile([]byte(`{"since":100,"until":200}`))
	require.NoError(t, err)

	require.True(t, f.Matches(mkEvent(repeat("ab", 32), 150, 1, "")))
	require.False(t, f.Matches(mkEvent(repeat("ab", 32), 50, 1, "")))
	require.False(t, f.Matches(mkEvent(repeat("ab", 32), 250, 1, "")))
}

func TestTagConstraint(t *testing.T) {
	f, err := Compile([]byte(`{"#e":["deadbeef"]}`))
	require.NoError(t, err)

	withTag := mkEvent(repeat("ab", 32), 1, 1, "", tag.New("e", "deadbeef"))
	require.True(t, f.Matches(withTag))

	withoutTag := mkEvent(repeat("ab", 32), 1, 1, "")
	require.False(t, f.Matches(withoutTag))

	wrongValue := mkEvent(repeat("ab", 32), 1, 1, "", tag.New("e", "cafebabe"))
	require.False(t, f.Matches(wrongValue))
}

func TestClampLimit(t *testing.T) {
	noLimit, err := Compile([]byte(`{}`))
	require.NoError(t, err)
	require.EqualValues(t, 100, noLimit.ClampLimit(100, 5000))

	withLimit, err := Compile([]byte(`{"limit":99999}`))
	require.NoError(t, err)
	require.EqualValues(t, 5000, withLimit.ClampLimit(100, 5000))

	small, err := Compile([]byte(`{"limit":10}`))
	require.NoError(t, err)
	require.EqualValues(t, 10, small.ClampLimit(100, 5000))
}

func TestSetMatchesIsOR(t *testing.T) {
	author := repeat("ab", 32)
	f1, _ := Compile([]byte(`{"kinds":[1]}`))
	f2, _ := Compile([]byte(`{"kinds":[2]}`))
	set := S{f1, f2}

	require.True(t, set.Matches(mkEvent(author, 1, 1, "")))
	require.True(t, set.Matches(mkEvent(author, 1, 2, "")))
	require.False(t, set.Matches(mkEvent(author, 1, 3, "")))
}

func TestSortReplayOrdersByCreatedAtDescThenIdAsc(t *testing.T) {
	a := mkEvent(repeat("ab", 32), 100, 1, "a")
	b := mkEvent(repeat("ab", 32), 200, 1, "b")
	c := mkEvent(repeat("ab", 32), 100, 1, "c")

	events := event.S{a, b, c}
	SortReplay(events)

	require.Equal(t, b, events[0])
	require.True(t, lessBytes(events[1].ID, events[2].ID) || eqBytes(events[1].ID, events[2].ID))
}

func eqBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
