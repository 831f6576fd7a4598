// Package relayinfo builds the NIP-11 relay information document and
// serves it as the relay root's "application/nostr+json" response.
package relayinfo

import "sort"

// T is the NIP-11 relay information document.
type T struct {
	Name          string   `json:"name,omitempty"`
	Description   string   `json:"description,omitempty"`
	Pubkey        string   `json:"pubkey,omitempty"`
	Contact       string   `json:"contact,omitempty"`
	SupportedNIPs []int    `json:"supported_nips,omitempty"`
	Software      string   `json:"software,omitempty"`
	Version       string   `json:"version,omitempty"`
	Limitation    *Limits  `json:"limitation,omitempty"`
	RelayCountries []string `json:"relay_countries,omitempty"`
	LanguageTags  []string `json:"language_tags,omitempty"`
	Icon          string   `json:"icon,omitempty"`
	Banner        string   `json:"banner,omitempty"`
	PrivacyPolicy string   `json:"privacy_policy,omitempty"`
	TermsOfService string  `json:"terms_of_service,omitempty"`
	PostingPolicy string   `json:"posting_policy,omitempty"`
}

// Limits is NIP-11's "limitation" object: the subset of policy limits
// worth advertising to clients ahead of time so they can avoid
// round-tripping a rejected EVENT or REQ.
type Limits struct {
	MaxMessageLength int  `json:"max_message_length,omitempty"`
	MaxSubscriptions int  `json:"max_subscriptions,omitempty"`
	MaxLimit         int  `json:"max_limit,omitempty"`
	MaxEventTags     int  `json:"max_event_tags,omitempty"`
	MaxContentLength int  `json:"max_content_length,omitempty"`
	MaxSubidLength   int  `json:"max_subid_length,omitempty"`
	CreatedAtLowerLimit int64 `json:"created_at_lower_limit,omitempty"`
	CreatedAtUpperLimit int64 `json:"created_at_upper_limit,omitempty"`
	AuthRequired     bool `json:"auth_required"`
	RestrictedWrites bool `json:"restricted_writes"`
}

// SupportedNIPs returns the fixed set of NIPs this relay implements,
// sorted ascending: 1 (basic protocol), 9 (event deletion), 11 (this
// document), 12 (generic tag queries), 33 (parameterized replaceable
// events).
func SupportedNIPs() []int {
	nips := []int{1, 9, 11, 12, 33}
	sort.Ints(nips)
	return nips
}
