// Package store defines the Event Repository port: the persistence
// boundary the Event Processor and Subscription Manager use without
// depending on the underlying storage engine. It covers exactly the
// operations the processor and filter engine need.
package store

import (
	"io"

	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/filter"
	"github.com/nostrcore/relay/pkg/utils/context"
)

// I is the full repository port.
type I interface {
	io.Closer
	Saver
	Querier
	Deleter
}

// Saver persists an event. For Replaceable/Addressable kinds, saving is
// conditional on the replacement rule; the implementation reports
// whether a row was written and whether an id identical to ev was already
// present (the "duplicate" case).
type Saver interface {
	SaveEvent(c context.T, ev *event.E) (stored bool, duplicate bool, err error)
}

// Querier answers a filter set with stored events, in no particular
// order — ordering for replay is the caller's job (pkg/encoders/filter.
// SortReplay), since a subscription with multiple filters needs a single
// merge sort, not one per filter.
type Querier interface {
	QueryEvents(c context.T, filters filter.S) (evs event.S, err error)
	// GetByID returns the single stored event with this id, or nil if
	// absent (used by kind-5 e-tag deletion lookups).
	GetByID(c context.T, id []byte) (ev *event.E, err error)
}

// Deleter physically removes stored events, used exclusively by the
// kind-5 deletion sub-protocol.
type Deleter interface {
	DeleteByID(c context.T, id []byte) (err error)
	// DeleteByCoordinate removes every stored event at the Addressable
	// coordinate (pubkey, kind, d) whose created_at is <= upTo.
	DeleteByCoordinate(c context.T, pubkey []byte, kind uint16, d string, upTo uint64) (err error)
}
