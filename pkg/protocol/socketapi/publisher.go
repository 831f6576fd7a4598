package socketapi

import (
	"sync"

	"github.com/nostrcore/relay/pkg/encoders/envelopes/eventenvelope"
	"github.com/nostrcore/relay/pkg/encoders/event"
	"github.com/nostrcore/relay/pkg/encoders/filter"
	"github.com/nostrcore/relay/pkg/interfaces/publisher"
	"github.com/nostrcore/relay/pkg/protocol/ws"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/log"
)

const Type = "socketapi"

// Map associates each connected Listener with its live subscriptions,
// subscription id to the filter set that must match for live delivery.
type Map map[*ws.Listener]map[string]filter.S

// W is the publisher.Message the handlers send to register or cancel a
// subscription. Cancel with an empty Id drops every subscription for
// Listener (connection close); Cancel with an Id drops just that one.
type W struct {
	*ws.Listener
	Cancel  bool
	Id      string
	Filters filter.S
}

// Dispatcher is the live Subscription Manager: it tracks which filters
// each connection is currently listening with and pushes matching events
// to them as they are saved.
type Dispatcher struct {
	mx  sync.Mutex
	Map Map
}

var _ publisher.I = (*Dispatcher)(nil)

func NewDispatcher() *Dispatcher { return &Dispatcher{Map: make(Map)} }

// Receive registers or cancels a subscription.
func (p *Dispatcher) Receive(msg publisher.Message) {
	m, ok := msg.(*W)
	if !ok {
		return
	}
	if m.Cancel {
		if m.Id == "" {
			p.removeListener(m.Listener)
			log.T.F("removed listener %s", m.Listener.RealRemote())
		} else {
			p.removeSubscription(m.Listener, m.Id)
			log.T.F("removed subscription %s for %s", m.Id, m.Listener.RealRemote())
		}
		return
	}
	p.mx.Lock()
	defer p.mx.Unlock()
	subs, ok := p.Map[m.Listener]
	if !ok {
		subs = make(map[string]filter.S)
		p.Map[m.Listener] = subs
	}
	subs[m.Id] = m.Filters
	log.T.F("subscription %s live for %s", m.Id, m.Listener.RealRemote())
}

// Deliver pushes ev as an EVENT message to every subscription whose
// filters match it.
func (p *Dispatcher) Deliver(ev *event.E) {
	p.mx.Lock()
	defer p.mx.Unlock()
	for l, subs := range p.Map {
		for id, filters := range subs {
			if !filters.Matches(ev) {
				continue
			}
			res, err := eventenvelope.NewResultWith(id, ev)
			if chk.E(err) {
				continue
			}
			if err = res.Write(l); chk.E(err) {
				continue
			}
		}
	}
}

func (p *Dispatcher) removeSubscription(l *ws.Listener, id string) {
	p.mx.Lock()
	defer p.mx.Unlock()
	if subs, ok := p.Map[l]; ok {
		delete(subs, id)
		if len(subs) == 0 {
			delete(p.Map, l)
		}
	}
}

// CountFor reports how many subscriptions l currently has registered,
// not counting id itself (so re-subscribing under the same id never
// trips the per-connection subscription limit).
func (p *Dispatcher) CountFor(l *ws.Listener, id string) int {
	p.mx.Lock()
	defer p.mx.Unlock()
	subs, ok := p.Map[l]
	if !ok {
		return 0
	}
	n := len(subs)
	if _, has := subs[id]; has {
		n--
	}
	return n
}

func (p *Dispatcher) removeListener(l *ws.Listener) {
	p.mx.Lock()
	defer p.mx.Unlock()
	delete(p.Map, l)
}
