package cache

import "time"

// Entry is the cached value for one help/version request.
type Entry struct {
	// Content is the captured output, already rebranded.
	Content string `json:"content"`

	// ChitinVersion is the shim version that wrote the entry.
	ChitinVersion string `json:"chitin_version"`

	// OpenclawVersion is the wrapped CLI version the content came from.
	OpenclawVersion string `json:"openclaw_version"`

	// CreatedAt is the capture timestamp (RFC3339 in the file).
	CreatedAt time.Time `json:"created_at"`
}

// Age returns the time elapsed since the entry was captured, measured
// against now so policy stays a pure function of its inputs.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
