// Package memstore is an in-memory Event Repository: the reference
// implementation of pkg/interfaces/store.I used by tests and as a
// drop-in for pkg/database/badgerstore when persistence is unneeded.
package memstore

import (
	"sync"

	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/filter"
	"github.com/nostrcore/relay/pkg/encoders/kind"
	"github.com/nostrcore/relay/pkg/interfaces/store"
	"github.com/nostrcore/relay/pkg/utils/context"
)

var _ store.I = (*S)(nil)

type replaceKey struct {
	pubkey string
	kind   uint16
	d      string
}

// S holds every stored event keyed by its hex id, plus an index from
// replacement key (pubkey, kind[, d]) to the currently retained id, used
// to enforce the replacement rule for Replaceable/Addressable kinds.
type S struct {
	mx       sync.RWMutex
	byID     map[string]*event.E
	byKey    map[replaceKey]string // replaceKey -> id
}

func New() *S {
	return &S{byID: make(map[string]*event.E), byKey: make(map[replaceKey]string)}
}

func (s *S) Close() error { return nil }

func (s *S) SaveEvent(c context.T, ev *event.E) (stored bool, duplicate bool, err error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	id := string(ev.ID)
	if _, ok := s.byID[id]; ok {
		return false, true, nil
	}

	class := ev.Kind.Class()
	if class == kind.Ephemeral {
		return false, false, nil
	}
	if class != kind.Replaceable && class != kind.Addressable {
		s.byID[id] = ev
		return true, false, nil
	}

	key := replaceKey{pubkey: string(ev.Pubkey), kind: ev.Kind.K}
	if class == kind.Addressable {
		key.d = ev.DTag()
	}
	if existingID, ok := s.byKey[key]; ok {
		existing := s.byID[existingID]
		if !newerWins(ev, existing) {
			return false, false, nil
		}
		delete(s.byID, existingID)
	}
	s.byKey[key] = id
	s.byID[id] = ev
	return true, false, nil
}

// newerWins reports whether candidate should replace stored: strictly
// newer by created_at, or equal created_at and strictly smaller id.
func newerWins(candidate, stored *event.E) bool {
	ct, st := candidate.CreatedAt.U64(), stored.CreatedAt.U64()
	if ct != st {
		return ct > st
	}
	return lessBytes(candidate.ID, stored.ID)
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

func (s *S) QueryEvents(c context.T, filters filter.S) (evs event.S, err error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	for _, ev := range s.byID {
		if filters.Matches(ev) {
			evs = append(evs, ev)
		}
	}
	filter.SortReplay(evs)
	return evs, nil
}

func (s *S) GetByID(c context.T, id []byte) (ev *event.E, err error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return s.byID[string(id)], nil
}

func (s *S) DeleteByID(c context.T, id []byte) (err error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	sid := string(id)
	ev, ok := s.byID[sid]
	if !ok {
		return nil
	}
	class := ev.Kind.Class()
	if class == kind.Replaceable || class == kind.Addressable {
		key := replaceKey{pubkey: string(ev.Pubkey), kind: ev.Kind.K}
		if class == kind.Addressable {
			key.d = ev.DTag()
		}
		if s.byKey[key] == sid {
			delete(s.byKey, key)
		}
	}
	delete(s.byID, sid)
	return nil
}

func (s *S) DeleteByCoordinate(c context.T, pubkey []byte, k uint16, d string, upTo uint64) (err error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	key := replaceKey{pubkey: string(pubkey), kind: k, d: d}
	if id, ok := s.byKey[key]; ok {
		if ev := s.byID[id]; ev != nil && ev.CreatedAt.U64() <= upTo {
			delete(s.byID, id)
			delete(s.byKey, key)
		}
	}
	return nil
}

// Count reports how many events are currently stored, used by tests.
func (s *S) Count() int {
	s.mx.RLock()
	defer s.mx.RUnlock()
	return len(s.byID)
}
