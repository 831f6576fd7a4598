package socketapi

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nostrcore/relay/pkg/encoders/envelopes/eventenvelope"
	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/filter"
	"github.com/nostrcore/relay/pkg/encoders/hex"
	"github.com/nostrcore/relay/pkg/encoders/kind"
	"github.com/nostrcore/relay/pkg/interfaces/server"
	"github.com/nostrcore/relay/pkg/interfaces/store"
	"github.com/nostrcore/relay/pkg/protocol/validator"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/context"
	"github.com/nostrcore/relay/pkg/utils/log"
)

// EventTracker is implemented optionally by a server.I so HandleEvent
// can report storage outcomes without widening server.I itself.
type EventTracker interface {
	RecordEventStored()
	RecordEventRejected()
	RecordEventDelivered()
}

// HandleEvent validates a submitted event, applies the kind-5 deletion
// sub-protocol when applicable, and then runs it (deletion requests
// included) through the Event Processor's replacement rule before fanning
// it out to live subscriptions.
func (a *A) HandleEvent(c context.T, req []byte, srv server.I) (notice []byte) {
	tracker, tracked := srv.(EventTracker)
	env := eventenvelope.NewSubmission()
	rem, err := env.Unmarshal(req)
	if chk.T(err) {
		return []byte(err.Error())
	}
	if len(rem) > 0 {
		log.D.F("extra %q after EVENT", rem)
	}
	ev := env.Event
	log.T.C(func() string { return fmt.Sprintf("EVENT %s: %s", a.Listener.RealRemote(), ev.Serialize()) })

	limits := srv.Config().Limits
	if f := validator.Validate(ev, limits, uint64(time.Now().Unix())); f != nil {
		if tracked {
			tracker.RecordEventRejected()
		}
		writeFail(a.Listener, ev.ID, f)
		return nil
	}

	sto := srv.Storage()

	if ev.Kind.K == kind.Deletion {
		processDeletion(c, ev, sto)
	}

	if deleted, err := wasDeleted(c, sto, ev.ID); chk.E(err) {
	} else if deleted {
		if tracked {
			tracker.RecordEventRejected()
		}
		writeOK(a.Listener, ev.ID, false, string(validator.PrefixBlocked)+": event was deleted, refusing to store it again")
		return nil
	}

	stored, duplicate, err := sto.SaveEvent(c, ev)
	if chk.E(err) {
		if tracked {
			tracker.RecordEventRejected()
		}
		writeOK(a.Listener, ev.ID, false, string(validator.PrefixError)+": "+err.Error())
		return nil
	}
	if duplicate {
		writeOK(a.Listener, ev.ID, true, string(validator.PrefixDuplicate)+": already have this event")
		return nil
	}
	if stored {
		if tracked {
			tracker.RecordEventStored()
		}
		srv.Dispatcher().Deliver(ev)
		if tracked {
			tracker.RecordEventDelivered()
		}
	}
	writeOK(a.Listener, ev.ID, true, "")
	return nil
}

// wasDeleted reports whether a kind-5 deletion event already targets id
// via an "e" tag, which blocks id from ever being (re-)stored.
func wasDeleted(c context.T, sto store.I, id []byte) (bool, error) {
	f, err := filter.Compile([]byte(fmt.Sprintf(
		`{"kinds":[%d],"#e":["%s"]}`, kind.Deletion, hex.Enc(id),
	)))
	if err != nil {
		return false, err
	}
	matched, err := sto.QueryEvents(c, filter.S{f})
	if err != nil {
		return false, err
	}
	return len(matched) > 0, nil
}

// processDeletion resolves every "e" and "a" tag on a kind-5 event and
// removes the events they name, provided the deletion event's pubkey
// matches the target's author: events can only delete their own.
func processDeletion(c context.T, ev *event.E, sto store.I) {
	for _, t := range ev.Tags.T {
		switch t.Key() {
		case "e":
			processDeleteByID(c, ev, t.Value(), sto)
		case "a":
			processDeleteByCoordinate(c, ev, t.Value(), sto)
		}
	}
}

func processDeleteByID(c context.T, ev *event.E, idHex string, sto store.I) {
	id, err := hex.Dec([]byte(idHex))
	if chk.D(err) {
		return
	}
	target, err := sto.GetByID(c, id)
	if chk.D(err) || target == nil {
		return
	}
	if target.Kind.K == kind.Deletion {
		log.D.F("refusing to delete deletion event %x via e-tag", id)
		return
	}
	if !bytes.Equal(target.Pubkey, ev.Pubkey) {
		log.D.F("refusing deletion of %x: author mismatch", id)
		return
	}
	chk.E(sto.DeleteByID(c, id))
}

// processDeleteByCoordinate parses an "a" tag value of the form
// "kind:pubkey:d" and removes every stored revision at or before ev's
// created_at, provided ev's pubkey matches the coordinate's pubkey and
// the coordinate's kind is itself Addressable (deletion events cannot be
// addressed, since they are Regular).
func processDeleteByCoordinate(c context.T, ev *event.E, coord string, sto store.I) {
	parts := strings.SplitN(coord, ":", 3)
	if len(parts) != 3 {
		log.D.F("malformed a-tag coordinate %q", coord)
		return
	}
	k, err := strconv.ParseUint(parts[0], 10, 16)
	if chk.D(err) {
		return
	}
	if k == kind.Deletion {
		log.D.F("refusing to address a deletion event via a-tag")
		return
	}
	if !kind.New(uint16(k)).IsAddressable() {
		log.D.F("a-tag coordinate kind %d is not addressable", k)
		return
	}
	pubkey, err := hex.Dec([]byte(parts[1]))
	if chk.D(err) {
		return
	}
	if !bytes.Equal(pubkey, ev.Pubkey) {
		log.D.F("refusing deletion of coordinate %q: author mismatch", coord)
		return
	}
	d := parts[2]
	chk.E(sto.DeleteByCoordinate(c, pubkey, uint16(k), d, ev.CreatedAt.U64()))
}
