// Package timestamp wraps the event `created_at` field: unsigned seconds
// since the Unix epoch, encoded as a bare JSON integer.
package timestamp

import (
	"strconv"
	"time"

	"github.com/nostrcore/relay/pkg/utils/errorf"
)

// T is a created_at value.
type T struct {
	u uint64
}

// New constructs a T from a Unix-seconds value.
func New(u uint64) *T { return &T{u: u} }

// Now returns the current time as a T.
func Now() *T { return &T{u: uint64(time.Now().Unix())} }

// U64 returns the raw Unix-seconds value.
func (t *T) U64() uint64 {
	if t == nil {
		return 0
	}
	return t.u
}

// I64 returns the value as a signed int64, for arithmetic against other
// signed timestamps.
func (t *T) I64() int64 { return int64(t.U64()) }

// Time returns the value as a time.Time.
func (t *T) Time() time.Time { return time.Unix(t.I64(), 0).UTC() }

// Marshal appends the bare decimal representation to dst.
func (t *T) Marshal(dst []byte) []byte {
	return strconv.AppendUint(dst, t.U64(), 10)
}

// Unmarshal parses a leading unsigned decimal integer off b, returning the
// remainder.
func (t *T) Unmarshal(b []byte) (rem []byte, err error) {
	i := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	if i == 0 {
		err = errorf.E("timestamp: expected digits, got '%s'", b)
		return
	}
	var u uint64
	if u, err = strconv.ParseUint(string(b[:i]), 10, 64); err != nil {
		return
	}
	t.u = u
	rem = b[i:]
	return
}
