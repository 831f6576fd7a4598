// Package relay wires together storage, the validator, the filter
// engine, and the Subscription Manager into one http.Handler: the
// relay root serves websocket upgrades and the NIP-11 information
// document, and Shutdown releases the underlying store cleanly.
package relay

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nostrcore/relay/pkg/app/config"
	"github.com/nostrcore/relay/pkg/interfaces/publisher"
	"github.com/nostrcore/relay/pkg/interfaces/server"
	"github.com/nostrcore/relay/pkg/interfaces/store"
	"github.com/nostrcore/relay/pkg/protocol/relayinfo"
	"github.com/nostrcore/relay/pkg/protocol/socketapi"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/context"
	"github.com/nostrcore/relay/pkg/utils/log"
)

// Server is the relay's top-level HTTP handler and dependency root.
type Server struct {
	Ctx        context.T
	Cancel     context.F
	Cfg        *config.C
	store      store.I
	dispatcher *socketapi.Dispatcher
	Metrics    *MetricsCollector
	mux        *chi.Mux
	httpServer *http.Server
	info       http.Handler
}

var _ server.I = (*Server)(nil)
var _ socketapi.ConnectionTracker = (*Server)(nil)
var _ socketapi.EventTracker = (*Server)(nil)

// New builds a Server around an already-opened store.
func New(ctx context.T, cancel context.F, cfg *config.C, sto store.I) (s *Server) {
	s = &Server{
		Ctx:        ctx,
		Cancel:     cancel,
		Cfg:        cfg,
		store:      sto,
		dispatcher: socketapi.NewDispatcher(),
		Metrics:    NewMetricsCollector(),
	}
	s.info = relayinfo.Handler(cfg)
	s.mux = chi.NewRouter()
	s.mux.Get("/", s.handleRoot)
	s.mux.Options("/", s.info.ServeHTTP)
	s.mux.Get("/metrics", s.Metrics.MetricsHandler)
	s.mux.Get("/health", s.Metrics.HealthHandler)
	go s.runHealthChecks()
	return s
}

// runHealthChecks probes the store every minute until the server
// context is cancelled.
func (s *Server) runHealthChecks() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	s.Metrics.PerformHealthCheck(s.Ctx, s.store)
	for {
		select {
		case <-ticker.C:
			s.Metrics.PerformHealthCheck(s.Ctx, s.store)
		case <-s.Ctx.Done():
			return
		}
	}
}

func (s *Server) Context() context.T      { return s.Ctx }
func (s *Server) Storage() store.I        { return s.store }
func (s *Server) Dispatcher() publisher.I { return s.dispatcher }
func (s *Server) Config() *config.C       { return s.Cfg }

func (s *Server) RecordConnectionOpened() { s.Metrics.RecordConnectionOpened() }
func (s *Server) RecordConnectionClosed() { s.Metrics.RecordConnectionClosed() }
func (s *Server) RecordEventStored()      { s.Metrics.RecordEventStored() }
func (s *Server) RecordEventRejected()    { s.Metrics.RecordEventRejected() }
func (s *Server) RecordEventDelivered()   { s.Metrics.RecordEventDelivered() }

// ServiceURL reconstructs the relay's own ws(s):// URL from the
// request's Host header, preferring wss when the request arrived over
// TLS or behind a TLS-terminating proxy.
func (s *Server) ServiceURL(req *http.Request) string {
	scheme := "ws"
	if req.TLS != nil || strings.EqualFold(req.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "wss"
	}
	return scheme + "://" + req.Host
}

// handleRoot serves a websocket upgrade or the NIP-11 document at the
// relay root, matching NIP-11's content-negotiation convention.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		socketapi.Serve(w, r, s)
		return
	}
	if relayinfo.WantsDocument(r) {
		s.info.ServeHTTP(w, r)
		return
	}
	http.Error(w, "this relay speaks the nostr websocket protocol", http.StatusUpgradeRequired)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start listens on host:port and serves until the context is
// cancelled or Shutdown is called.
func (s *Server) Start(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.I.F("listening on %s", addr)
	s.httpServer = &http.Server{
		Handler:           s,
		Addr:              addr,
		ReadHeaderTimeout: 7 * time.Second,
		IdleTimeout:       28 * time.Second,
	}
	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown cancels the server context, closes the store, and shuts
// down the HTTP server.
func (s *Server) Shutdown() {
	log.I.Ln("shutting down relay")
	s.Cancel()
	chk.E(s.store.Close())
	if s.httpServer != nil {
		chk.E(s.httpServer.Shutdown(context.Bg()))
	}
}
