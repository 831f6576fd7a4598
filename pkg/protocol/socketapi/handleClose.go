package socketapi

import (
	"github.com/nostrcore/relay/pkg/encoders/envelopes/closeenvelope"
	"github.com/nostrcore/relay/pkg/interfaces/server"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/log"
)

// HandleClose unmarshals a CLOSE envelope and cancels the named
// subscription for this connection.
func (a *A) HandleClose(req []byte, srv server.I) (notice []byte) {
	env := closeenvelope.New()
	rem, err := env.Unmarshal(req)
	if chk.T(err) {
		return []byte(err.Error())
	}
	if len(rem) > 0 {
		log.D.F("extra %q after CLOSE", rem)
	}
	if env.Subscription == "" {
		return []byte("invalid: CLOSE has no subscription id")
	}
	srv.Dispatcher().Receive(
		&W{Cancel: true, Listener: a.Listener, Id: env.Subscription},
	)
	return nil
}
