package socketapi

import (
	"time"

	"github.com/fasthttp/websocket"

	"github.com/nostrcore/relay/pkg/utils/context"
	"github.com/nostrcore/relay/pkg/utils/log"
)

// pinger keeps the connection alive with periodic pings, closing it if a
// ping fails to send or the context ends.
func (a *A) pinger(ctx context.T, ticker *time.Ticker, cancel context.F) {
	defer func() {
		cancel()
		ticker.Stop()
		_ = a.Listener.Close()
	}()
	for {
		select {
		case <-ticker.C:
			err := a.Listener.Conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(DefaultPingWait),
			)
			if err != nil {
				log.D.F("ping failed for %s, closing: %v", a.Listener.RealRemote(), err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
