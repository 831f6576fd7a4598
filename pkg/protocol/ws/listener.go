// Package ws wraps a single relay-side websocket connection: framed
// writes, the client's real remote address, and lifecycle state shared
// between the read loop and the pinger goroutine.
package ws

import (
	"net/http"
	"strings"
	"sync"

	"github.com/fasthttp/websocket"
	"go.uber.org/atomic"
)

// Listener is one accepted websocket connection.
type Listener struct {
	mutex   sync.Mutex
	Conn    *websocket.Conn
	Request *http.Request
	remote  atomic.String
	closed  atomic.Bool
}

// NewListener wraps an already-upgraded connection.
func NewListener(conn *websocket.Conn, req *http.Request) (l *Listener) {
	l = &Listener{Conn: conn, Request: req}
	l.remote.Store(remoteFromReq(req, conn))
	return
}

// remoteFromReq prefers a reverse proxy's forwarded-for/real-ip headers
// over the raw TCP peer address, which is usually the proxy itself.
func remoteFromReq(r *http.Request, conn *websocket.Conn) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return xr
	}
	return conn.NetConn().RemoteAddr().String()
}

// Write sends a text frame to the client, satisfying io.Writer so
// envelope types can Write(l) directly.
func (l *Listener) Write(p []byte) (n int, err error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if err = l.Conn.WriteMessage(websocket.TextMessage, p); err != nil {
		if strings.Contains(err.Error(), "close sent") {
			_ = l.closeLocked()
			return len(p), nil
		}
		return 0, err
	}
	return len(p), nil
}

// WriteMessage is a wrapper around the underlying control/ping/pong
// WriteMessage that serializes against concurrent text writes.
func (l *Listener) WriteMessage(t int, b []byte) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.Conn.WriteMessage(t, b)
}

// RealRemote returns the client's best-known address.
func (l *Listener) RealRemote() string { return l.remote.Load() }

// Req returns the originating HTTP request (headers, URL, TLS state).
func (l *Listener) Req() *http.Request { return l.Request }

// Close closes the underlying connection exactly once.
func (l *Listener) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.closeLocked()
}

func (l *Listener) closeLocked() error {
	if l.closed.CompareAndSwap(false, true) {
		return l.Conn.Close()
	}
	return nil
}

// Closed reports whether Close has already run.
func (l *Listener) Closed() bool { return l.closed.Load() }
