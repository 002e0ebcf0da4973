// Package dedupe tracks match identities so a match log is applied at most once.
package dedupe

import "strings"

// Deduper records seen match IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it if not.
	SeenAndRecord(id string) bool

	// Size returns the number of distinct IDs recorded.
	Size() int
}

// setDeduper keeps every ID for the lifetime of a replay. A historical log
// must never forget an ID, so there is no eviction.
type setDeduper struct {
	seen map[string]struct{}
}

// New creates a Deduper configured by opts.
func New(opts ...Option) Deduper {
	d := &setDeduper{}
	capacity := 0
	for _, opt := range opts {
		opt(d, &capacity)
	}
	d.seen = make(map[string]struct{}, capacity)
	return d
}

func (d *setDeduper) SeenAndRecord(id string) bool {
	key := strings.TrimSpace(id)
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *setDeduper) Size() int { return len(d.seen) }
