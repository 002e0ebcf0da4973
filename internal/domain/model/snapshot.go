package model

import (
	"sort"
	"time"
)

// Report counts matches that did not take part in a replay.
type Report struct {
	Total    int            `json:"total"`
	Accepted int            `json:"accepted"`
	Excluded int            `json:"excluded"`
	Rejected map[string]int `json:"rejected,omitempty"`
}

// RejectedTotal sums rejections across reasons.
func (r Report) RejectedTotal() int {
	n := 0
	for _, c := range r.Rejected {
		n += c
	}
	return n
}

// Snapshot is the final state of one tau run.
type Snapshot struct {
	RunID        string
	Tau          float64
	GeneratedAt  time.Time
	PeriodStart  Month
	PeriodEnd    Month
	TotalPeriods int
	States       map[Bucket]RatingState
	Report       Report
}

// Len returns the number of rated buckets.
func (s *Snapshot) Len() int { return len(s.States) }

// Empty reports whether the run rated nothing.
func (s *Snapshot) Empty() bool { return len(s.States) == 0 }

// Buckets returns bucket ids ordered by weight class, then competitor id.
func (s *Snapshot) Buckets() []Bucket {
	out := make([]Bucket, 0, len(s.States))
	for b := range s.States {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].WeightClass != out[j].WeightClass {
			return out[i].WeightClass < out[j].WeightClass
		}
		return out[i].CompetitorID < out[j].CompetitorID
	})
	return out
}

// Row is one persisted ratings-table row.
type Row struct {
	CompetitorID  string
	WeightClass   int
	Rating        float64
	RD            float64
	Volatility    float64
	MatchesPlayed int
	LastActive    Month
	Tau           float64
	RunID         string
}

// Bucket returns the row's bucket id.
func (r Row) Bucket() Bucket { return Bucket{CompetitorID: r.CompetitorID, WeightClass: r.WeightClass} }

// Conservative returns rating - 2*RD.
func (r Row) Conservative() float64 { return r.Rating - 2*r.RD }

// Rows flattens the snapshot in Buckets order, tagged with tau provenance.
func (s *Snapshot) Rows() []Row {
	buckets := s.Buckets()
	rows := make([]Row, 0, len(buckets))
	for _, b := range buckets {
		st := s.States[b]
		rows = append(rows, Row{
			CompetitorID:  b.CompetitorID,
			WeightClass:   b.WeightClass,
			Rating:        st.Rating,
			RD:            st.RD,
			Volatility:    st.Volatility,
			MatchesPlayed: st.MatchesPlayed,
			LastActive:    st.LastActive,
			Tau:           s.Tau,
			RunID:         s.RunID,
		})
	}
	return rows
}
