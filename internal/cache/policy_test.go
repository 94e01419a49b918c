package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/peakxl/chitin/internal/cache"
)

func TestDecide(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	probe := cache.Versions{Chitin: "0.3.0", Openclaw: "2026.2.1"}
	ttl := 24 * time.Hour

	fresh := func() cache.Entry {
		return cache.Entry{
			Content:         "Usage: chitin ...",
			ChitinVersion:   "0.3.0",
			OpenclawVersion: "2026.2.1",
			CreatedAt:       now.Add(-time.Second),
		}
	}

	tests := []struct {
		name   string
		entry  func() *cache.Entry
		want   cache.Decision
		mutate func(*cache.Entry)
	}{
		{
			name:  "no entry is a miss",
			entry: func() *cache.Entry { return nil },
			want:  cache.Miss,
		},
		{
			name:  "fresh matching entry is a hit",
			entry: func() *cache.Entry { e := fresh(); return &e },
			want:  cache.Hit,
		},
		{
			name:   "chitin version drift is stale regardless of age",
			entry:  func() *cache.Entry { e := fresh(); return &e },
			mutate: func(e *cache.Entry) { e.ChitinVersion = "0.2.9" },
			want:   cache.Stale,
		},
		{
			name:   "openclaw version drift is stale regardless of age",
			entry:  func() *cache.Entry { e := fresh(); return &e },
			mutate: func(e *cache.Entry) { e.OpenclawVersion = "2026.1.0" },
			want:   cache.Stale,
		},
		{
			name:   "entry at exactly the TTL is stale",
			entry:  func() *cache.Entry { e := fresh(); return &e },
			mutate: func(e *cache.Entry) { e.CreatedAt = now.Add(-ttl) },
			want:   cache.Stale,
		},
		{
			name:   "entry just inside the TTL is a hit",
			entry:  func() *cache.Entry { e := fresh(); return &e },
			mutate: func(e *cache.Entry) { e.CreatedAt = now.Add(-ttl + time.Minute) },
			want:   cache.Hit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.entry()
			if tt.mutate != nil {
				tt.mutate(entry)
			}
			assert.Equal(t, tt.want, cache.Decide(probe, entry, now, ttl))
		})
	}
}

// TestDecideVersionBeatsTTL pins the tie-break: an expired entry with
// drifted versions is reported stale for the version reason first, meaning
// even a one-second-old entry with a bumped version is never trusted.
func TestDecideVersionBeatsTTL(t *testing.T) {
	now := time.Now()
	probe := cache.Versions{Chitin: "0.3.0", Openclaw: "2026.2.1"}

	oneSecondOld := cache.Entry{
		Content:         "cached",
		ChitinVersion:   "0.3.0",
		OpenclawVersion: "2026.2.2",
		CreatedAt:       now.Add(-time.Second),
	}
	assert.Equal(t, cache.Stale, cache.Decide(probe, &oneSecondOld, now, 24*time.Hour))
}
