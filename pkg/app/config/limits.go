package config

// Limits is the immutable policy record injected at startup. The values
// reported in the NIP-11 `limitation` object must be exactly these, so the
// relay-info responder reads this same struct rather than a separate
// copy.
type Limits struct {
	MaxMessageLength  uint `env:"MAX_MESSAGE_LENGTH" default:"131072"`
	MaxSubscriptions  uint `env:"MAX_SUBSCRIPTIONS" default:"20"`
	MaxLimit          uint `env:"MAX_LIMIT" default:"5000"`
	DefaultLimit      uint `env:"DEFAULT_LIMIT" default:"100"`
	MaxEventTags      uint `env:"MAX_EVENT_TAGS" default:"1000"`
	MaxContentLength  uint `env:"MAX_CONTENT_LENGTH" default:"65536"`
	MaxSubIDLength    uint `env:"MAX_SUBID_LENGTH" default:"64"`
	CreatedAtLowerLimit uint64 `env:"CREATED_AT_LOWER_LIMIT" default:"31536000"`
	CreatedAtUpperLimit uint64 `env:"CREATED_AT_UPPER_LIMIT" default:"900"`
}

// DefaultLimits returns the documented default policy values.
func DefaultLimits() Limits {
	return Limits{
		MaxMessageLength:    131072,
		MaxSubscriptions:    20,
		MaxLimit:            5000,
		DefaultLimit:        100,
		MaxEventTags:        1000,
		MaxContentLength:    65536,
		MaxSubIDLength:      64,
		CreatedAtLowerLimit: 31536000,
		CreatedAtUpperLimit: 900,
	}
}
