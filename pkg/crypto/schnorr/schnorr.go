// Package schnorr verifies and produces BIP-340 Schnorr signatures over
// an event's id — itself the sha256 digest of the event's canonical id
// payload, signed directly with no additional hashing — using
// github.com/btcsuite/btcd/btcec/v2 as the curve implementation.
package schnorr

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	sha256simd "github.com/minio/sha256-simd"

	"github.com/nostrcore/relay/pkg/utils/errorf"
)

const (
	// SecKeyLen is the length in bytes of a raw secp256k1 secret key.
	SecKeyLen = 32
	// PubKeyLen is the length in bytes of a BIP-340 x-only public key.
	PubKeyLen = 32
	// SigLen is the length in bytes of a BIP-340 schnorr signature.
	SigLen = 64
)

// Signer holds a parsed key pair; either half may be nil depending on
// whether it was initialized for signing or for verification only.
type Signer struct {
	sec *btcec.PrivateKey
	pub *btcec.PublicKey
	skb []byte
	pkb []byte
}

// InitSec initializes a Signer from a raw 32-byte secret key, able to both
// sign and verify.
func (s *Signer) InitSec(sec []byte) (err error) {
	if len(sec) != SecKeyLen {
		return errorf.E("schnorr: secret key must be %d bytes, got %d", SecKeyLen, len(sec))
	}
	s.sec, s.pub = btcec.PrivKeyFromBytes(sec)
	s.skb = sec
	s.pkb = schnorr.SerializePubKey(s.pub)
	return
}

// InitPub initializes a Signer from a raw 32-byte x-only public key, able
// to verify only.
func (s *Signer) InitPub(pub []byte) (err error) {
	if s.pub, err = schnorr.ParsePubKey(pub); err != nil {
		return errorf.E("schnorr: bad public key: %w", err)
	}
	s.pkb = pub
	return
}

// Sec returns the raw secret key bytes, or nil if this Signer was
// initialized for verification only.
func (s *Signer) Sec() []byte { return s.skb }

// Pub returns the raw x-only public key bytes.
func (s *Signer) Pub() []byte { return s.pkb }

// Sign produces a BIP-340 signature over msg, which must already be the
// 32-byte digest to sign (an event's id, not its preimage).
func (s *Signer) Sign(msg []byte) (sig []byte, err error) {
	if s.sec == nil {
		return nil, errorf.E("schnorr: signer has no secret key")
	}
	si, err := schnorr.Sign(s.sec, msg)
	if err != nil {
		return nil, errorf.E("schnorr: sign: %w", err)
	}
	return si.Serialize(), nil
}

// Verify reports whether sig is a valid BIP-340 signature over msg, which
// must already be the 32-byte digest that was signed, under this
// Signer's public key.
func (s *Signer) Verify(msg, sig []byte) (valid bool, err error) {
	if s.pub == nil {
		return false, errorf.E("schnorr: signer has no public key")
	}
	if len(sig) != SigLen {
		return false, errorf.E("schnorr: signature must be %d bytes, got %d", SigLen, len(sig))
	}
	si, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false, errorf.E("schnorr: bad signature: %w", err)
	}
	return si.Verify(msg, s.pub), nil
}

// Sum256 hashes b with sha256-simd, the accelerated implementation the
// event id and signature digests use throughout the core.
func Sum256(b []byte) [32]byte { return sha256simd.Sum256(b) }

// Verify is a package-level convenience wrapping InitPub+Verify for the
// common case of checking one event's signature against its own pubkey,
// used by the validator.
func Verify(pubkey, msg, sig []byte) (valid bool, err error) {
	var s Signer
	if err = s.InitPub(pubkey); err != nil {
		return false, err
	}
	return s.Verify(msg, sig)
}
