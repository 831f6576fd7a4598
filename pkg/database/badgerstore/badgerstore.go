// Package badgerstore is the persistent Event Repository, backed by
// github.com/dgraph-io/badger/v4. Since storage sits behind the store.I
// port, only correct query/replace/delete semantics matter, not a
// particular on-disk byte layout. Keys:
//
//	e/<32-byte id>                -> event JSON
//	k/<pubkey><kind16>[/<d>]      -> <32-byte id>   (replacement index)
//
// QueryEvents falls back to a full scan evaluated by the Filter Engine;
// the k/ index only serves SaveEvent's replacement check and kind-5's
// coordinate deletion, not filter matching.
package badgerstore

import (
	"bytes"

	"github.com/dgraph-io/badger/v4"

	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/filter"
	"github.com/nostrcore/relay/pkg/encoders/kind"
	"github.com/nostrcore/relay/pkg/interfaces/store"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/context"
	"github.com/nostrcore/relay/pkg/utils/log"
)

var _ store.I = (*S)(nil)

// S wraps a badger.DB opened on the configured data directory.
type S struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger database at path.
func Open(path string) (s *S, err error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	var db *badger.DB
	if db, err = badger.Open(opts); chk.E(err) {
		return nil, err
	}
	return &S{db: db}, nil
}

func (s *S) Close() error { return s.db.Close() }

func eventKey(id []byte) []byte { return append([]byte("e/"), id...) }

func replaceKey(pubkey []byte, k uint16, d string) []byte {
	b := append([]byte("k/"), pubkey...)
	b = append(b, byte(k>>8), byte(k))
	if d != "" {
		b = append(b, '/')
		b = append(b, d...)
	}
	return b
}

func (s *S) SaveEvent(c context.T, ev *event.E) (stored bool, duplicate bool, err error) {
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, e := txn.Get(eventKey(ev.ID)); e == nil {
			duplicate = true
			return nil
		} else if e != badger.ErrKeyNotFound {
			return e
		}

		class := ev.Kind.Class()
		if class == kind.Ephemeral {
			return nil
		}
		if class != kind.Replaceable && class != kind.Addressable {
			stored = true
			return txn.Set(eventKey(ev.ID), ev.Marshal(nil))
		}

		d := ""
		if class == kind.Addressable {
			d = ev.DTag()
		}
		rk := replaceKey(ev.Pubkey, ev.Kind.K, d)
		item, e := txn.Get(rk)
		if e != nil && e != badger.ErrKeyNotFound {
			return e
		}
		if e == nil {
			var existingID []byte
			if existingID, e = item.ValueCopy(nil); e != nil {
				return e
			}
			existingItem, e2 := txn.Get(eventKey(existingID))
			if e2 != nil && e2 != badger.ErrKeyNotFound {
				return e2
			}
			if e2 == nil {
				var raw []byte
				if raw, e2 = existingItem.ValueCopy(nil); e2 != nil {
					return e2
				}
				existing := event.New()
				if e2 = existing.Unmarshal(raw); e2 != nil {
					return e2
				}
				if !newerWins(ev, existing) {
					return nil
				}
				if e2 = txn.Delete(eventKey(existingID)); e2 != nil {
					return e2
				}
			}
		}
		stored = true
		if e = txn.Set(rk, ev.ID); e != nil {
			return e
		}
		return txn.Set(eventKey(ev.ID), ev.Marshal(nil))
	})
	return
}

func newerWins(candidate, stored *event.E) bool {
	ct, st := candidate.CreatedAt.U64(), stored.CreatedAt.U64()
	if ct != st {
		return ct > st
	}
	return bytes.Compare(candidate.ID, stored.ID) < 0
}

func (s *S) GetByID(c context.T, id []byte) (ev *event.E, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, e := txn.Get(eventKey(id))
		if e == badger.ErrKeyNotFound {
			return nil
		}
		if e != nil {
			return e
		}
		raw, e := item.ValueCopy(nil)
		if e != nil {
			return e
		}
		ev = event.New()
		return ev.Unmarshal(raw)
	})
	return
}

func (s *S) QueryEvents(c context.T, filters filter.S) (evs event.S, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte("e/")
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			raw, e := it.Item().ValueCopy(nil)
			if e != nil {
				return e
			}
			ev := event.New()
			if e = ev.Unmarshal(raw); e != nil {
				log.W.F("badgerstore: skipping corrupt record: %v", e)
				continue
			}
			if filters.Matches(ev) {
				evs = append(evs, ev)
			}
		}
		return nil
	})
	filter.SortReplay(evs)
	return evs, err
}

func (s *S) DeleteByID(c context.T, id []byte) (err error) {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(eventKey(id))
	})
}

func (s *S) DeleteByCoordinate(c context.T, pubkey []byte, k uint16, d string, upTo uint64) (err error) {
	return s.db.Update(func(txn *badger.Txn) error {
		rk := replaceKey(pubkey, k, d)
		item, e := txn.Get(rk)
		if e == badger.ErrKeyNotFound {
			return nil
		}
		if e != nil {
			return e
		}
		id, e := item.ValueCopy(nil)
		if e != nil {
			return e
		}
		evItem, e := txn.Get(eventKey(id))
		if e == badger.ErrKeyNotFound {
			return nil
		}
		if e != nil {
			return e
		}
		raw, e := evItem.ValueCopy(nil)
		if e != nil {
			return e
		}
		ev := event.New()
		if e = ev.Unmarshal(raw); e != nil {
			return e
		}
		if ev.CreatedAt.U64() > upTo {
			return nil
		}
		if e = txn.Delete(eventKey(id)); e != nil {
			return e
		}
		return txn.Delete(rk)
	})
}
