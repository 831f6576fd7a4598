// Package server defines the dependency-injection surface the protocol
// handlers see: storage, the dispatcher, and the active limits record.
// It carries no NIP-42/NIP-98 auth or relay-gossip methods, since this
// core implements neither.
package server

import (
	"net/http"

	"github.com/nostrcore/relay/pkg/app/config"
	"github.com/nostrcore/relay/pkg/interfaces/publisher"
	"github.com/nostrcore/relay/pkg/interfaces/store"
	"github.com/nostrcore/relay/pkg/utils/context"
)

// I is implemented by pkg/app/relay.Server and passed down into every
// protocol handler.
type I interface {
	Context() context.T
	Storage() store.I
	Dispatcher() publisher.I
	Config() *config.C
	Shutdown()
	// ServiceURL reconstructs the relay's own ws(s):// URL from an HTTP
	// request.
	ServiceURL(req *http.Request) string
}
