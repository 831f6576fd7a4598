package socketapi

import (
	"github.com/nostrcore/relay/pkg/encoders/envelopes/okenvelope"
	"github.com/nostrcore/relay/pkg/protocol/ws"
	"github.com/nostrcore/relay/pkg/protocol/validator"
	"github.com/nostrcore/relay/pkg/utils/chk"
)

// writeOK sends an OK envelope for eventID.
func writeOK(l *ws.Listener, eventID []byte, ok bool, reason string) {
	chk.E(okenvelope.NewFrom(eventID, ok, reason).Write(l))
}

// writeFail sends a rejecting OK envelope carrying f's "<prefix>: <msg>"
// reason.
func writeFail(l *ws.Listener, eventID []byte, f *validator.Failure) {
	writeOK(l, eventID, false, f.Error())
}
