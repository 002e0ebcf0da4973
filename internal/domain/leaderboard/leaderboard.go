// Package leaderboard ranks persisted ratings per weight class by the
// conservative estimate rating - 2*RD.
package leaderboard

import (
	"sort"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// DefaultLimit is the number of entries shown per weight class.
const DefaultLimit = 25

// Entry is one ranked bucket.
type Entry struct {
	Rank          int         `json:"rank"`
	CompetitorID  string      `json:"competitor_id"`
	WeightClass   int         `json:"weight_class"`
	Score         float64     `json:"conservative_rating"`
	Rating        float64     `json:"rating"`
	RD            float64     `json:"rating_deviation"`
	Volatility    float64     `json:"volatility"`
	MatchesPlayed int         `json:"matches_played"`
	LastActive    model.Month `json:"last_active_month"`
}

// FromRow converts a persisted row to an unranked entry.
func FromRow(r model.Row) Entry {
	return Entry{
		CompetitorID:  r.CompetitorID,
		WeightClass:   r.WeightClass,
		Score:         r.Conservative(),
		Rating:        r.Rating,
		RD:            r.RD,
		Volatility:    r.Volatility,
		MatchesPlayed: r.MatchesPlayed,
		LastActive:    r.LastActive,
	}
}

// Query narrows a leaderboard.
type Query struct {
	// Limit caps entries per weight class; zero means all.
	Limit int
	// MinLastActive drops buckets last active before this month.
	MinLastActive *model.Month
}

// Keep reports whether e passes the activity filter.
func (q Query) Keep(e Entry) bool {
	return q.MinLastActive == nil || e.LastActive >= *q.MinLastActive
}

// Less orders entries by score descending, then competitor id ascending.
func Less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.CompetitorID < b.CompetitorID
}

// Build groups rows by weight class and ranks each group.
func Build(rows []model.Row, q Query) map[int][]Entry {
	groups := make(map[int][]Entry)
	for _, r := range rows {
		e := FromRow(r)
		if q.Keep(e) {
			groups[e.WeightClass] = append(groups[e.WeightClass], e)
		}
	}
	for w, entries := range groups {
		sort.Slice(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
		if q.Limit > 0 && len(entries) > q.Limit {
			entries = entries[:q.Limit]
		}
		for i := range entries {
			entries[i].Rank = i + 1
		}
		groups[w] = entries
	}
	return groups
}

// Weights returns the weight classes of groups in ascending order.
func Weights(groups map[int][]Entry) []int {
	out := make([]int, 0, len(groups))
	for w := range groups {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}
