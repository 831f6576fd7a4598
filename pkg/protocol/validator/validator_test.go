package validator

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/nostrcore/relay/pkg/app/config"
	"github.com/nostrcore/relay/pkg/crypto/schnorr"
	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/tag"
)

func signedEvent(t *testing.T, createdAt uint64, content string, tags ...*tag.T) *event.E {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	var signer schnorr.Signer
	require.NoError(t, signer.InitSec(priv.Serialize()))

	e := event.New()
	e.Pubkey = signer.Pub()
	e.CreatedAt.Unmarshal([]byte(itoa(createdAt)))
	e.Kind.K = 1
	e.Content = content
	for _, tg := range tags {
		e.Tags.Append(tg)
	}
	e.SetID()
	sig, err := signer.Sign(e.ID)
	require.NoError(t, err)
	e.Sig = sig
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

func TestValidateAcceptsWellFormedEvent(t *testing.T) {
	limits := config.DefaultLimits()
	e := signedEvent(t, 1700000000, "hello")
	require.Nil(t, Validate(e, limits, 1700000000))
}

func TestValidateRejectsTamperedID(t *testing.T) {
	limits := config.DefaultLimits()
	e := signedEvent(t, 1700000000, "hello")
	e.ID[0] ^= 0xff
	f := Validate(e, limits, 1700000000)
	require.NotNil(t, f)
	require.Equal(t, PrefixInvalid, f.Prefix)
}

func TestValidateRejectsBadSignature(t *testing.T) {
	limits := config.DefaultLimits()
	e := signedEvent(t, 1700000000, "hello")
	e.Sig[0] ^= 0xff
	f := Validate(e, limits, 1700000000)
	require.NotNil(t, f)
	require.Equal(t, PrefixInvalid, f.Prefix)
}

func TestValidateRejectsProtectedEventTag(t *testing.T) {
	limits := config.DefaultLimits()
	e := signedEvent(t, 1700000000, "hello", tag.New("-"))
	f := Validate(e, limits, 1700000000)
	require.NotNil(t, f)
	require.Equal(t, PrefixBlocked, f.Prefix)
}

func TestValidateRejectsTooOldCreatedAt(t *testing.T) {
	limits := config.DefaultLimits()
	e := signedEvent(t, 100, "hello")
	f := Validate(e, limits, 100+limits.CreatedAtLowerLimit+1)
	require.NotNil(t, f)
	require.Equal(t, PrefixInvalid, f.Prefix)
}

func TestValidateRejectsTooFarFuture(t *testing.T) {
	limits := config.DefaultLimits()
	now := uint64(1700000000)
	e := signedEvent(t, now+limits.CreatedAtUpperLimit+1, "hello")
	f := Validate(e, limits, now)
	require.NotNil(t, f)
	require.Equal(t, PrefixInvalid, f.Prefix)
}

func TestValidateAcceptsAtExactBounds(t *testing.T) {
	limits := config.DefaultLimits()
	now := uint64(1700000000)
	e := signedEvent(t, now-limits.CreatedAtLowerLimit, "hello")
	require.Nil(t, Validate(e, limits, now))

	e2 := signedEvent(t, now+limits.CreatedAtUpperLimit, "hello")
	require.Nil(t, Validate(e2, limits, now))
}

func TestValidateRejectsTooManyTags(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxEventTags = 1
	e := signedEvent(t, 1700000000, "hello", tag.New("e", "x"), tag.New("e", "y"))
	f := Validate(e, limits, 1700000000)
	require.NotNil(t, f)
}
