package relayinfo

import (
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"github.com/nostrcore/relay/pkg/app/config"
	"github.com/nostrcore/relay/pkg/utils/chk"
	"github.com/nostrcore/relay/pkg/utils/log"
)

// Software identifies this relay implementation in the document's
// "software" field.
const Software = "https://github.com/nostrcore/relay"

// Version is the relay's version string, set at build time via
// -ldflags or left as "dev".
var Version = "dev"

// Handler builds the NIP-11 document from cfg once and serves it for
// every request whose Accept header asks for it.
func Handler(cfg *config.C) http.Handler {
	info := &T{
		Name:           cfg.Name,
		Description:    cfg.Description,
		Pubkey:         cfg.Pubkey,
		Contact:        cfg.Contact,
		SupportedNIPs:  cfg.SupportedNIPs,
		Software:       Software,
		Version:        Version,
		Icon:           cfg.Icon,
		Banner:         cfg.Banner,
		PrivacyPolicy:  cfg.PrivacyPolicy,
		TermsOfService: cfg.TermsOfService,
		PostingPolicy:  cfg.PostingPolicy,
		RelayCountries: cfg.RelayCountries,
		LanguageTags:   cfg.LanguageTags,
		Limitation: &Limits{
			MaxMessageLength:    int(cfg.MaxMessageLength),
			MaxSubscriptions:    int(cfg.MaxSubscriptions),
			MaxLimit:            int(cfg.MaxLimit),
			MaxEventTags:        int(cfg.MaxEventTags),
			MaxContentLength:    int(cfg.MaxContentLength),
			MaxSubidLength:      int(cfg.MaxSubIDLength),
			CreatedAtLowerLimit: int64(cfg.CreatedAtLowerLimit),
			CreatedAtUpperLimit: int64(cfg.CreatedAtUpperLimit),
		},
	}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.T.Ln("serving relay information document")
		w.Header().Set("Content-Type", "application/nostr+json")
		if err := json.NewEncoder(w).Encode(info); chk.E(err) {
			http.Error(w, "error: failed to encode relay information document", http.StatusInternalServerError)
		}
	})
	return cors.AllowAll().Handler(h)
}

// WantsDocument reports whether r is asking the relay root for its
// NIP-11 information document rather than a websocket upgrade.
func WantsDocument(r *http.Request) bool {
	return r.Header.Get("Accept") == "application/nostr+json"
}
