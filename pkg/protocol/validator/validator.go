// Package validator implements the Event Validator: structural, identity,
// signature, and policy-limit checks applied to every inbound event
// before the processor sees it.
package validator

import (
	"unicode/utf8"

	"github.com/nostrcore/relay/pkg/app/config"
	"github.com/nostrcore/relay/pkg/crypto/schnorr"
	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/hex"
)

// Prefix is the machine-readable reason-prefix vocabulary every rejecting
// OK/CLOSED message begins with.
type Prefix string

const (
	PrefixDuplicate    Prefix = "duplicate"
	PrefixPoW          Prefix = "pow"
	PrefixBlocked      Prefix = "blocked"
	PrefixRateLimited  Prefix = "rate-limited"
	PrefixInvalid      Prefix = "invalid"
	PrefixRestricted   Prefix = "restricted"
	PrefixAuthRequired Prefix = "auth-required"
	PrefixMute         Prefix = "mute"
	PrefixError        Prefix = "error"
)

// Failure carries a rejection reason in the wire-ready "<prefix>: <msg>"
// form.
type Failure struct {
	Prefix  Prefix
	Message string
}

func (f *Failure) Error() string { return string(f.Prefix) + ": " + f.Message }

func fail(p Prefix, msg string) *Failure { return &Failure{Prefix: p, Message: msg} }

// Validate runs every check in order, stopping at the first failure.
// now is the current time in Unix seconds used for the created_at bound
// checks; tests pass a fixed value, the protocol handler the wall clock.
func Validate(ev *event.E, limits config.Limits, now uint64) *Failure {
	if f := structural(ev, limits); f != nil {
		return f
	}
	if f := identity(ev); f != nil {
		return f
	}
	if f := signature(ev); f != nil {
		return f
	}
	if f := policyLimits(ev, limits, now); f != nil {
		return f
	}
	if f := protectedEvent(ev); f != nil {
		return f
	}
	return nil
}

func structural(ev *event.E, limits config.Limits) *Failure {
	if len(ev.ID) != 32 {
		return fail(PrefixInvalid, "id must be 32 bytes")
	}
	if len(ev.Pubkey) != 32 {
		return fail(PrefixInvalid, "pubkey must be 32 bytes")
	}
	if len(ev.Sig) != 64 {
		return fail(PrefixInvalid, "sig must be 64 bytes")
	}
	if ev.Tags == nil {
		return fail(PrefixInvalid, "tags must be present")
	}
	for _, t := range ev.Tags.T {
		if t.Len() < 1 {
			return fail(PrefixInvalid, "every tag must have at least one field")
		}
	}
	if !utf8.ValidString(ev.Content) {
		return fail(PrefixInvalid, "content must be valid UTF-8")
	}
	_ = limits
	return nil
}

// identity recomputes the canonical id and compares it against the
// claimed id.
func identity(ev *event.E) *Failure {
	want := ev.ComputeID()
	if !bytesEqual(want, ev.ID) {
		return fail(PrefixInvalid, "id does not match sha256 of canonical serialization")
	}
	return nil
}

func signature(ev *event.E) *Failure {
	valid, err := schnorr.Verify(ev.Pubkey, ev.ID, ev.Sig)
	if err != nil {
		return fail(PrefixInvalid, "malformed signature or pubkey: "+err.Error())
	}
	if !valid {
		return fail(PrefixInvalid, "signature verification failed")
	}
	return nil
}

func policyLimits(ev *event.E, limits config.Limits, now uint64) *Failure {
	if uint(ev.Tags.Len()) > limits.MaxEventTags {
		return fail(PrefixInvalid, "too many tags")
	}
	if uint(utf8.RuneCountInString(ev.Content)) > limits.MaxContentLength {
		return fail(PrefixInvalid, "content too long")
	}
	ca := ev.CreatedAt.U64()
	if ca < now && now-ca > limits.CreatedAtLowerLimit {
		return fail(PrefixInvalid, "created_at too far in the past")
	}
	if ca > now && ca-now > limits.CreatedAtUpperLimit {
		return fail(PrefixInvalid, "created_at too far in the future")
	}
	return nil
}

// protectedEvent rejects any event carrying a ["-"] tag: NIP-70 protected
// events, which this core never treats as authenticated (no NIP-42
// session), so the default rule is an unconditional reject.
func protectedEvent(ev *event.E) *Failure {
	for _, t := range ev.Tags.T {
		if t.Len() == 1 && t.Field[0] == "-" {
			return fail(PrefixBlocked, "protected event requires authenticated matching pubkey")
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
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

// EncodeID is a convenience used by log messages to print an event id as
// hex without importing the hex package at every call site.
func EncodeID(id []byte) string { return string(hex.Enc(id)) }
