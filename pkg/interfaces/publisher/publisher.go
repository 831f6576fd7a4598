// Package publisher defines the Dispatcher's port: something that can
// receive subscription lifecycle messages and deliver events to whatever
// subscriptions currently match.
package publisher

import "github.com/nostrcore/relay/pkg/encoders/event"

// Message is a subscription lifecycle instruction sent to a Dispatcher:
// open/replace a subscription, or cancel one (or all of a connection's).
// Its concrete shape lives in pkg/protocol/socketapi, the only producer
// and consumer.
type Message interface{}

// I is implemented by pkg/protocol/socketapi.Dispatcher.
type I interface {
	// Receive applies a subscription lifecycle Message.
	Receive(msg Message)
	// Deliver fans ev out to every subscription whose filter set
	// currently matches it.
	Deliver(ev *event.E)
}
