// Package event implements the Nostr event: its field set, canonical
// serialization for id hashing, and wire JSON codec.
package event

import (
	"bytes"
	"encoding/json"

	"github.com/nostrcore/relay/pkg/crypto/schnorr"
	"github.com/nostrcore/relay/pkg/encoders/hex"
	"github.com/nostrcore/relay/pkg/encoders/kind"
	"github.com/nostrcore/relay/pkg/encoders/tag"
	"github.com/nostrcore/relay/pkg/encoders/timestamp"
	"github.com/nostrcore/relay/pkg/utils/errorf"
)

// E is an event: immutable after validation.
type E struct {
	ID        []byte
	Pubkey    []byte
	CreatedAt *timestamp.T
	Kind      *kind.T
	Tags      *tag.Tags
	Content   string
	Sig       []byte
}

// S is a sequence of events, ordered however the caller produced it — the
// Filter Engine's replay ordering (created_at desc, id asc) is established
// by the repository/query layer, not by this type.
type S []*E

// C is a channel of events. The dispatcher does not use it; it writes
// matching events to each connection directly.
type C chan *E

// New constructs an empty E ready for Unmarshal.
func New() *E {
	return &E{CreatedAt: timestamp.New(0), Kind: kind.New(0), Tags: tag.NewTags()}
}

// dto is the wire/storage JSON shape. Decoding goes through this struct
// (encoding/json is safe here — only the canonical *id-hash* serialization
// needs the dedicated escaper, since that's the byte sequence whose hash is
// load-bearing) and is then converted into E's richer field types.
type dto struct {
	ID        string     `json:"id"`
	Pubkey    string     `json:"pubkey"`
	CreatedAt uint64     `json:"created_at"`
	Kind      uint16     `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Unmarshal decodes a single JSON event object from b.
func (e *E) Unmarshal(b []byte) (err error) {
	var d dto
	if err = json.Unmarshal(b, &d); err != nil {
		return errorf.E("event: invalid JSON: %w", err)
	}
	return e.fromDTO(&d)
}

func (e *E) fromDTO(d *dto) (err error) {
	if d.ID != "" {
		if e.ID, err = hex.Dec([]byte(d.ID)); err != nil {
			return errorf.E("event: bad id: %w", err)
		}
	}
	if d.Pubkey != "" {
		if e.Pubkey, err = hex.Dec([]byte(d.Pubkey)); err != nil {
			return errorf.E("event: bad pubkey: %w", err)
		}
	}
	if d.Sig != "" {
		if e.Sig, err = hex.Dec([]byte(d.Sig)); err != nil {
			return errorf.E("event: bad sig: %w", err)
		}
	}
	e.CreatedAt = timestamp.New(d.CreatedAt)
	e.Kind = kind.New(d.Kind)
	e.Tags = tag.NewTags()
	for _, raw := range d.Tags {
		e.Tags.Append(tag.New(raw...))
	}
	e.Content = d.Content
	return nil
}

// Marshal encodes e as the wire/storage JSON object, appended to dst.
// Field order matches nip-01's canonical convention (id, pubkey,
// created_at, kind, tags, content, sig) but this is the object form, not
// the id-hash array form — see CanonicalIDPayload for that.
func (e *E) Marshal(dst []byte) []byte {
	b := dst
	b = append(b, '{')
	b = append(b, `"id":"`...)
	b = hex.EncAppend(b, e.ID)
	b = append(b, `","pubkey":"`...)
	b = hex.EncAppend(b, e.Pubkey)
	b = append(b, `","created_at":`...)
	b = e.CreatedAt.Marshal(b)
	b = append(b, `,"kind":`...)
	b = appendUint(b, uint64(e.Kind.K))
	b = append(b, `,"tags":`...)
	b = marshalTags(b, e.Tags)
	b = append(b, `,"content":"`...)
	b = NostrEscape(b, e.Content)
	b = append(b, `","sig":"`...)
	b = hex.EncAppend(b, e.Sig)
	b = append(b, `"}`...)
	return b
}

// Serialize is a convenience wrapper returning Marshal's output as a string,
// used in trace log messages throughout the protocol handlers.
func (e *E) Serialize() string { return string(e.Marshal(nil)) }

// CanonicalIDPayload builds the exact byte sequence used for id hashing: the
// JSON array [0, pubkey, created_at, kind, tags, content], no extraneous
// whitespace, content escaped per the NIP-01 escape set.
func (e *E) CanonicalIDPayload() []byte {
	var b []byte
	b = append(b, '[', '0', ',', '"')
	b = hex.EncAppend(b, e.Pubkey)
	b = append(b, '"', ',')
	b = e.CreatedAt.Marshal(b)
	b = append(b, ',')
	b = appendUint(b, uint64(e.Kind.K))
	b = append(b, ',')
	b = marshalTags(b, e.Tags)
	b = append(b, ',', '"')
	b = NostrEscape(b, e.Content)
	b = append(b, '"', ']')
	return b
}

func marshalTags(dst []byte, ts *tag.Tags) []byte {
	b := append(dst, '[')
	for i, t := range ts.T {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '[')
		for j, f := range t.Field {
			if j > 0 {
				b = append(b, ',')
			}
			b = append(b, '"')
			b = NostrEscape(b, f)
			b = append(b, '"')
		}
		b = append(b, ']')
	}
	b = append(b, ']')
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

// Equal reports whether two events have the same id.
func (e *E) Equal(o *E) bool {
	if e == nil || o == nil {
		return e == o
	}
	return bytes.Equal(e.ID, o.ID)
}

// DTag returns the value used to key Addressable-class replacement: the
// first value of the first "d" tag, or "" if absent.
func (e *E) DTag() string { return e.Tags.DValue() }

// ComputeID returns the sha256 digest of e's canonical id payload. It does
// not mutate e or check the result against e.ID — signature verification
// and the identity check that compares this against the claimed id live in
// the validator, which also owns the public key.
func (e *E) ComputeID() []byte {
	h := schnorr.Sum256(e.CanonicalIDPayload())
	return h[:]
}

// SetID computes the canonical id and stores it on e, used when
// constructing and signing a new event rather than validating an inbound
// one.
func (e *E) SetID() { e.ID = e.ComputeID() }

// Sign populates Pubkey, ID, and Sig from s, leaving CreatedAt, Kind,
// Tags, and Content for the caller to have already set.
func (e *E) Sign(s *schnorr.Signer) (err error) {
	e.Pubkey = s.Pub()
	e.SetID()
	e.Sig, err = s.Sign(e.ID)
	return
}
