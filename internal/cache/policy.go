package cache

import "time"

// Decision is the policy verdict for a cacheable request.
type Decision int

const (
	// Miss means no entry exists for the key.
	Miss Decision = iota

	// Stale means an entry exists but must not be trusted.
	Stale

	// Hit means the entry's content can be returned as-is.
	Hit
)

func (d Decision) String() string {
	switch d {
	case Hit:
		return "hit"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// Versions is the probed version pair an entry is validated against.
type Versions struct {
	Chitin   string
	Openclaw string
}

// Decide classifies an entry against the current versions and time.
// entry is nil when no entry exists for the key.
//
// Version drift is checked before the TTL: a version bump invalidates the
// entry no matter how fresh it is, while the TTL catches installs that
// changed behavior without a version bump (local dev builds).
func Decide(probe Versions, entry *Entry, now time.Time, ttl time.Duration) Decision {
	if entry == nil {
		return Miss
	}
	if entry.ChitinVersion != probe.Chitin || entry.OpenclawVersion != probe.Openclaw {
		return Stale
	}
	if entry.Age(now) >= ttl {
		return Stale
	}
	return Hit
}
