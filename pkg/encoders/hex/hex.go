// Package hex encodes and decodes the lowercase-hex fields used throughout
// the protocol (event id, pubkey, sig, and the hex sets inside a filter),
// backed by github.com/templexxx/xhex for the actual byte shuffling.
package hex

import (
	"github.com/templexxx/xhex"

	"github.com/nostrcore/relay/pkg/utils/errorf"
)

// Enc returns the lowercase-hex encoding of b.
func Enc(b []byte) []byte {
	dst := make([]byte, xhex.EncodedLen(len(b)))
	xhex.Encode(dst, b)
	return dst
}

// EncAppend appends the lowercase-hex encoding of b to dst.
func EncAppend(dst, b []byte) []byte {
	return append(dst, Enc(b)...)
}

// Dec decodes a lowercase-hex string into raw bytes.
func Dec(s []byte) (b []byte, err error) {
	if len(s)%2 != 0 {
		err = errorf.E("hex: odd length input")
		return
	}
	b = make([]byte, xhex.DecodedLen(len(s)))
	if err = xhex.Decode(b, s); err != nil {
		return nil, err
	}
	return
}

// DecBytes decodes s into a newly allocated slice, exactly as Dec does;
// dst is ignored and kept only for the DecBytes(dst, src) signature.
func DecBytes(dst, s []byte) (b []byte, err error) {
	return Dec(s)
}

// IsLowerHexOfLen reports whether s is exactly n characters of lowercase hex.
func IsLowerHexOfLen(s []byte, n int) bool {
	if len(s) != n {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		default:
			return false
		}
	}
	return true
}
