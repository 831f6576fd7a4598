package badgerstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/filter"
	"github.com/nostrcore/relay/pkg/encoders/hex"
	"github.com/nostrcore/relay/pkg/encoders/tag"
	"github.com/nostrcore/relay/pkg/utils/context"
)

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
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

func mkEvent(pubkeyHex string, createdAt uint64, k uint16, content string, tags ...*tag.T) *event.E {
	e := event.New()
	e.Pubkey, _ = hex.Dec([]byte(pubkeyHex))
	e.CreatedAt.Unmarshal([]byte(itoa(createdAt)))
	e.Kind.K = k
	e.Content = content
	for _, t := range tags {
		e.Tags.Append(t)
	}
	e.SetID()
	return e
}

func newStore(t *testing.T) *S {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestRegularEventsAllKept(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	author := repeat("ab", 32)

	e1 := mkEvent(author, 100, 1, "one")
	e2 := mkEvent(author, 200, 1, "two")

	stored, dup, err := s.SaveEvent(ctx, e1)
	require.NoError(t, err)
	require.True(t, stored)
	require.False(t, dup)

	stored, dup, err = s.SaveEvent(ctx, e2)
	require.NoError(t, err)
	require.True(t, stored)
	require.False(t, dup)

	got, err := s.GetByID(ctx, e1.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	got, err = s.GetByID(ctx, e2.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestDuplicateRegularEvent(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	e := mkEvent(repeat("ab", 32), 100, 1, "x")

	_, _, err := s.SaveEvent(ctx, e)
	require.NoError(t, err)
	stored, dup, err := s.SaveEvent(ctx, e)
	require.NoError(t, err)
	require.False(t, stored)
	require.True(t, dup)
}

func TestReplaceableKeepsOnlyNewest(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	author := repeat("ab", 32)

	older := mkEvent(author, 100, 0, "old profile")
	newer := mkEvent(author, 200, 0, "new profile")

	_, _, err := s.SaveEvent(ctx, older)
	require.NoError(t, err)
	_, _, err = s.SaveEvent(ctx, newer)
	require.NoError(t, err)

	got, err := s.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = s.GetByID(ctx, older.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestReplaceableOlderArrivingAfterIsDiscarded(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	author := repeat("ab", 32)

	newer := mkEvent(author, 200, 0, "new profile")
	older := mkEvent(author, 100, 0, "old profile")

	_, _, err := s.SaveEvent(ctx, newer)
	require.NoError(t, err)
	stored, dup, err := s.SaveEvent(ctx, older)
	require.NoError(t, err)
	require.False(t, stored)
	require.False(t, dup)

	got, _ := s.GetByID(ctx, newer.ID)
	require.NotNil(t, got)
	got, _ = s.GetByID(ctx, older.ID)
	require.Nil(t, got)
}

func TestEphemeralNeverPersisted(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	e := mkEvent(repeat("ab", 32), 100, 20000, "ping")

	stored, dup, err := s.SaveEvent(ctx, e)
	require.NoError(t, err)
	require.False(t, stored)
	require.False(t, dup)

	got, err := s.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestAddressableKeyedByDTag(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	author := repeat("ab", 32)

	a1 := mkEvent(author, 100, 30000, "list A v1", tag.New("d", "a"))
	a2 := mkEvent(author, 200, 30000, "list A v2", tag.New("d", "a"))
	b1 := mkEvent(author, 100, 30000, "list B", tag.New("d", "b"))

	for _, e := range []*event.E{a1, a2, b1} {
		_, _, err := s.SaveEvent(ctx, e)
		require.NoError(t, err)
	}

	got, _ := s.GetByID(ctx, a1.ID)
	require.Nil(t, got)
	got, _ = s.GetByID(ctx, a2.ID)
	require.NotNil(t, got)
	got, _ = s.GetByID(ctx, b1.ID)
	require.NotNil(t, got)
}

func TestQueryEventsMatchesFilter(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	author := repeat("ab", 32)
	e1 := mkEvent(author, 100, 1, "one")
	e2 := mkEvent(author, 200, 2, "two")
	_, _, err := s.SaveEvent(ctx, e1)
	require.NoError(t, err)
	_, _, err = s.SaveEvent(ctx, e2)
	require.NoError(t, err)

	f, err := filter.Compile([]byte(`{"kinds":[1]}`))
	require.NoError(t, err)
	got, err := s.QueryEvents(ctx, filter.S{f})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].Equal(e1))
}

func TestDeleteByID(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	e := mkEvent(repeat("ab", 32), 100, 1, "x")
	_, _, err := s.SaveEvent(ctx, e)
	require.NoError(t, err)
	require.NoError(t, s.DeleteByID(ctx, e.ID))
	got, _ := s.GetByID(ctx, e.ID)
	require.Nil(t, got)
}

func TestDeleteByCoordinateRespectsUpTo(t *testing.T) {
	s := newStore(t)
	ctx := context.Bg()
	author := repeat("ab", 32)
	e := mkEvent(author, 100, 30000, "x", tag.New("d", "a"))
	_, _, err := s.SaveEvent(ctx, e)
	require.NoError(t, err)

	require.NoError(t, s.DeleteByCoordinate(ctx, e.Pubkey, 30000, "a", 50))
	got, _ := s.GetByID(ctx, e.ID)
	require.NotNil(t, got, "created_at after upTo must not be deleted")

	require.NoError(t, s.DeleteByCoordinate(ctx, e.Pubkey, 30000, "a", 150))
	got, _ = s.GetByID(ctx, e.ID)
	require.Nil(t, got)
}
