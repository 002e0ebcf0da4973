// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Match is a raw, immutable match fact as supplied by ingestion.
// The two participants have no inherent order; Winner names one of them.
type Match struct {
	ID          string
	CompetitorA string
	CompetitorB string
	Winner      string
	WeightClass string // raw label, e.g. "138", "138A", "HWT"
	Date        time.Time
}

// Loser returns the participant that is not the winner and whether the
// winner is one of the two participants.
func (m Match) Loser() (string, bool) {
	switch m.Winner {
	case m.CompetitorA:
		return m.CompetitorB, true
	case m.CompetitorB:
		return m.CompetitorA, true
	default:
		return "", false
	}
}

// Bout is a validated match assigned to a canonical weight class and a rating period.
type Bout struct {
	MatchID     string
	Winner      string
	Loser       string
	WeightClass int
	Date        time.Time
	Month       Month
}

// WinnerBucket returns the rating bucket of the winner.
func (b Bout) WinnerBucket() Bucket { return Bucket{CompetitorID: b.Winner, WeightClass: b.WeightClass} }

// LoserBucket returns the rating bucket of the loser.
func (b Bout) LoserBucket() Bucket { return Bucket{CompetitorID: b.Loser, WeightClass: b.WeightClass} }

// Bucket identifies one independently rated (competitor, canonical weight class) pair.
type Bucket struct {
	CompetitorID string
	WeightClass  int
}

// Key formats the bucket as "<competitorId>-<weightClass>".
func (b Bucket) Key() string {
	return b.CompetitorID + "-" + strconv.Itoa(b.WeightClass)
}

// String implements fmt.Stringer.
func (b Bucket) String() string { return b.Key() }

// ParseBucketKey reverses Key. Competitor ids may themselves contain '-',
// so the weight class is taken after the last separator.
func ParseBucketKey(key string) (Bucket, error) {
	i := strings.LastIndexByte(key, '-')
	if i <= 0 || i == len(key)-1 {
		return Bucket{}, fmt.Errorf("%w: %q", ErrInvalidBucketKey, key)
	}
	weight, err := strconv.Atoi(key[i+1:])
	if err != nil {
		return Bucket{}, fmt.Errorf("%w: %q", ErrInvalidBucketKey, key)
	}
	return Bucket{CompetitorID: key[:i], WeightClass: weight}, nil
}
