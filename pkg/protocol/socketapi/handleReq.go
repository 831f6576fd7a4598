package socketapi

import (
	"github.com/nostrcore/relay/pkg/encoders/envelopes/closedenvelope"
	"github.com/nostrcore/relay/pkg/encoders/envelopes/eoseenvelope"
	"github.com/nostrcore/relay/pkg/encoders/envelopes/eventenvelope"
	"github.com/nostrcore/relay/pkg/encoders/envelopes/reqenvelope"
	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/filter"
	"github.com/nostrcore/relay/pkg/interfaces/server"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/context"
	"github.com/nostrcore/relay/pkg/utils/log"
)

// HandleReq replays every stored event matching any of the REQ's
// filters, followed by EOSE, then registers the filters for live
// dispatch. A new subscription id that would exceed the configured
// per-connection maximum is refused with CLOSED before any replay.
func (a *A) HandleReq(c context.T, req []byte, srv server.I) (notice []byte) {
	env := reqenvelope.New()
	rem, err := env.Unmarshal(req)
	if err != nil {
		if env.Subscription != "" {
			chk.E(closedenvelope.NewFrom(env.Subscription, "invalid: "+err.Error()).Write(a.Listener))
			return nil
		}
		return []byte(err.Error())
	}
	if len(rem) > 0 {
		log.D.F("extra %q after REQ", rem)
	}
	limits := srv.Config().Limits
	if l := len(env.Subscription); l == 0 || uint(l) > limits.MaxSubIDLength {
		chk.E(closedenvelope.NewFrom(env.Subscription, "invalid: subscription id must be 1-64 characters").Write(a.Listener))
		return nil
	}
	if len(env.Filters) == 0 {
		chk.E(closedenvelope.NewFrom(env.Subscription, "invalid: REQ needs at least one filter").Write(a.Listener))
		return nil
	}

	if d, ok := srv.Dispatcher().(*Dispatcher); ok {
		if d.CountFor(a.Listener, env.Subscription) >= int(limits.MaxSubscriptions) {
			chk.E(closedenvelope.NewFrom(env.Subscription, "error: too many subscriptions").Write(a.Listener))
			return nil
		}
	}

	sto := srv.Storage()
	var replay event.S
	seen := make(map[string]bool, 64)
	for _, f := range env.Filters {
		limit := f.ClampLimit(limits.DefaultLimit, limits.MaxLimit)
		if limit == 0 {
			continue
		}
		matched, err := sto.QueryEvents(c, filter.S{f})
		if chk.E(err) {
			continue
		}
		filter.SortReplay(matched)
		if uint(len(matched)) > limit {
			matched = matched[:limit]
		}
		for _, ev := range matched {
			key := string(ev.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			replay = append(replay, ev)
		}
	}
	filter.SortReplay(replay)
	for _, ev := range replay {
		res, err := eventenvelope.NewResultWith(env.Subscription, ev)
		if chk.E(err) {
			continue
		}
		chk.E(res.Write(a.Listener))
	}
	chk.E(eoseenvelope.NewFrom(env.Subscription).Write(a.Listener))

	srv.Dispatcher().Receive(
		&W{Listener: a.Listener, Id: env.Subscription, Filters: env.Filters},
	)
	return nil
}
