package socketapi

import (
	"fmt"

	"github.com/nostrcore/relay/pkg/encoders/envelopes"
	"github.com/nostrcore/relay/pkg/encoders/envelopes/closeenvelope"
	"github.com/nostrcore/relay/pkg/encoders/envelopes/eventenvelope"
	"github.com/nostrcore/relay/pkg/encoders/envelopes/noticeenvelope"
	"github.com/nostrcore/relay/pkg/encoders/envelopes/reqenvelope"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/log"
)

// HandleMessage identifies msg's envelope label and routes it to the
// matching handler, writing back a NOTICE for anything that handler
// reports.
func (a *A) HandleMessage(msg []byte) {
	remote := a.Listener.RealRemote()
	log.T.C(func() string { return fmt.Sprintf("%s -> %s", remote, msg) })

	label, rem, err := envelopes.Identify(msg)
	var notice []byte
	if chk.T(err) {
		notice = []byte(err.Error())
	} else {
		switch label {
		case eventenvelope.L:
			notice = a.HandleEvent(a.Ctx, rem, a.I)
		case reqenvelope.L:
			notice = a.HandleReq(a.Ctx, rem, a.I)
		case closeenvelope.L:
			notice = a.HandleClose(rem, a.I)
		case "AUTH", "COUNT", "NEG-OPEN", "NEG-MSG", "NEG-CLOSE":
			notice = []byte(fmt.Sprintf("error: %s is not supported by this relay", label))
		default:
			notice = []byte("error: unknown message type")
		}
	}
	if len(notice) > 0 {
		log.D.C(func() string { return fmt.Sprintf("notice->%s %s", remote, notice) })
		chk.E(noticeenvelope.NewFrom(string(notice)).Write(a.Listener))
	}
}
