// Package socketapi is the Subscription Manager and wire-protocol
// dispatch loop: it upgrades an HTTP request to a websocket, reads
// framed NIP-01 messages off it, and routes each to the handler for its
// envelope label.
package socketapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/nostrcore/relay/pkg/interfaces/server"
	"github.com/nostrcore/relay/pkg/protocol/ws"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/context"
	"github.com/nostrcore/relay/pkg/utils/log"
)

const (
	DefaultWriteWait      = 10 * time.Second
	DefaultPongWait       = 60 * time.Second
	DefaultPingWait       = DefaultPongWait / 2
	DefaultMaxMessageSize = 1 << 20
)

// A binds one accepted connection to the dependencies its message
// handlers need.
type A struct {
	Ctx context.T
	*ws.Listener
	server.I
}

// ConnectionTracker is implemented optionally by a server.I so Serve
// can report connection lifecycle without widening server.I itself.
type ConnectionTracker interface {
	RecordConnectionOpened()
	RecordConnectionClosed()
}

// Serve upgrades r to a websocket and reads frames from it until the
// connection or the server's own context ends.
func Serve(w http.ResponseWriter, r *http.Request, srv server.I) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if chk.E(err) {
		return
	}
	a := &A{I: srv}
	var cancel context.F
	a.Ctx, cancel = context.Cancel(srv.Context())
	a.Listener = ws.NewListener(conn, r)

	tracker, tracked := srv.(ConnectionTracker)
	if tracked {
		tracker.RecordConnectionOpened()
	}

	ticker := time.NewTicker(DefaultPingWait)
	defer func() {
		cancel()
		ticker.Stop()
		srv.Dispatcher().Receive(&W{Cancel: true, Listener: a.Listener})
		_ = a.Listener.Close()
		if tracked {
			tracker.RecordConnectionClosed()
		}
	}()

	conn.SetReadLimit(int64(srv.Config().MaxMessageLength))
	chk.E(conn.SetReadDeadline(time.Now().Add(DefaultPongWait)))
	conn.SetPongHandler(
		func(string) error {
			return conn.SetReadDeadline(time.Now().Add(DefaultPongWait))
		},
	)

	go a.pinger(a.Ctx, ticker, cancel)

	for {
		select {
		case <-a.Ctx.Done():
			return
		case <-srv.Context().Done():
			return
		default:
		}
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if strings.Contains(err.Error(), "use of closed network connection") {
				return
			}
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseNormalClosure, websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure,
			) {
				log.W.F("unexpected close from %s: %v", a.Listener.RealRemote(), err)
			}
			return
		}
		if typ == websocket.PingMessage {
			chk.E(a.Listener.WriteMessage(websocket.PongMessage, nil))
			continue
		}
		go a.HandleMessage(msg)
	}
}
