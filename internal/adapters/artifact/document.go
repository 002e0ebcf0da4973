// Package artifact writes and reads the per-run JSON rating files and the
// evaluation summary.
package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// Rounding applied to published values.
const (
	ratingPlaces     = 3
	volatilityPlaces = 6
)

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Rating is the published state of one bucket.
type Rating struct {
	Rating          float64     `json:"rating"`
	RD              float64     `json:"rating_deviation"`
	Volatility      float64     `json:"volatility"`
	MatchesPlayed   int         `json:"matches_played"`
	LastActiveMonth model.Month `json:"last_active_month"`
}

// Entry is one row of a weight-class table.
type Entry struct {
	CompetitorID     string      `json:"competitor_id"`
	Rating           float64     `json:"rating"`
	RD               float64     `json:"rd"`
	Volatility       float64     `json:"volatility"`
	Matches          int         `json:"matches"`
	LastActivePeriod model.Month `json:"last_active_period"`
}

// WeightClass holds the entries of one weight, sorted by rating descending.
type WeightClass struct {
	Weight  int
	Entries []Entry
}

// WeightClasses marshals as a JSON object whose keys follow numeric weight order.
type WeightClasses []WeightClass

// MarshalJSON implements json.Marshaler.
func (w WeightClasses) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, wc := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		entries, err := json.Marshal(wc.Entries)
		if err != nil {
			return nil, err
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(wc.Weight)))
		buf.WriteByte(':')
		buf.Write(entries)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *WeightClasses) UnmarshalJSON(b []byte) error {
	var raw map[string][]Entry
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(WeightClasses, 0, len(raw))
	for k, entries := range raw {
		weight, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("%w: weight class %q", ErrMalformed, k)
		}
		out = append(out, WeightClass{Weight: weight, Entries: entries})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight < out[j].Weight })
	*w = out
	return nil
}

// Document is the JSON artifact of one tau run.
type Document struct {
	Tau           float64           `json:"tau"`
	RunID         string            `json:"run_id"`
	GeneratedAt   time.Time         `json:"generated_at"`
	PeriodStart   *string           `json:"period_start"`
	PeriodEnd     *string           `json:"period_end"`
	TotalPeriods  int               `json:"total_periods"`
	Report        model.Report      `json:"report"`
	Ratings       map[string]Rating `json:"ratings"`
	WeightClasses WeightClasses     `json:"weight_classes"`
}

// Build renders snap as a Document with rounded values.
func Build(snap *model.Snapshot) (*Document, error) {
	if snap == nil {
		return nil, ErrNilSnapshot
	}
	doc := &Document{
		Tau:          snap.Tau,
		RunID:        snap.RunID,
		GeneratedAt:  snap.GeneratedAt.UTC().Truncate(time.Second),
		TotalPeriods: snap.TotalPeriods,
		Report:       snap.Report,
		Ratings:      make(map[string]Rating, snap.Len()),
	}
	if snap.TotalPeriods > 0 {
		start, end := snap.PeriodStart.Date(), snap.PeriodEnd.Date()
		doc.PeriodStart, doc.PeriodEnd = &start, &end
	}

	byWeight := map[int][]Entry{}
	for _, b := range snap.Buckets() {
		s := snap.States[b]
		r := Rating{
			Rating:          round(s.Rating, ratingPlaces),
			RD:              round(s.RD, ratingPlaces),
			Volatility:      round(s.Volatility, volatilityPlaces),
			MatchesPlayed:   s.MatchesPlayed,
			LastActiveMonth: s.LastActive,
		}
		doc.Ratings[b.Key()] = r
		byWeight[b.WeightClass] = append(byWeight[b.WeightClass], Entry{
			CompetitorID:     b.CompetitorID,
			Rating:           r.Rating,
			RD:               r.RD,
			Volatility:       r.Volatility,
			Matches:          r.MatchesPlayed,
			LastActivePeriod: r.LastActiveMonth,
		})
	}
	for w, entries := range byWeight {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Rating > entries[j].Rating })
		doc.WeightClasses = append(doc.WeightClasses, WeightClass{Weight: w, Entries: entries})
	}
	sort.Slice(doc.WeightClasses, func(i, j int) bool {
		return doc.WeightClasses[i].Weight < doc.WeightClasses[j].Weight
	})
	return doc, nil
}

// Rows flattens the document back into persisted rows.
func (d *Document) Rows() ([]model.Row, error) {
	rows := make([]model.Row, 0, len(d.Ratings))
	for key, r := range d.Ratings {
		b, err := model.ParseBucketKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		rows = append(rows, model.Row{
			CompetitorID:  b.CompetitorID,
			WeightClass:   b.WeightClass,
			Rating:        r.Rating,
			RD:            r.RD,
			Volatility:    r.Volatility,
			MatchesPlayed: r.MatchesPlayed,
			LastActive:    r.LastActiveMonth,
			Tau:           d.Tau,
			RunID:         d.RunID,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WeightClass != rows[j].WeightClass {
			return rows[i].WeightClass < rows[j].WeightClass
		}
		return rows[i].CompetitorID < rows[j].CompetitorID
	})
	return rows, nil
}

// Snapshot rebuilds the run the document was rendered from, with the
// published (rounded) values. States are current through PeriodEnd.
func (d *Document) Snapshot() (*model.Snapshot, error) {
	rows, err := d.Rows()
	if err != nil {
		return nil, err
	}
	snap := &model.Snapshot{
		RunID:        d.RunID,
		Tau:          d.Tau,
		GeneratedAt:  d.GeneratedAt,
		TotalPeriods: d.TotalPeriods,
		Report:       d.Report,
		States:       make(map[model.Bucket]model.RatingState, len(rows)),
	}
	if d.PeriodStart != nil && d.PeriodEnd != nil {
		if snap.PeriodStart, err = model.ParseMonth(*d.PeriodStart); err != nil {
			return nil, fmt.Errorf("%w: period_start: %v", ErrMalformed, err)
		}
		if snap.PeriodEnd, err = model.ParseMonth(*d.PeriodEnd); err != nil {
			return nil, fmt.Errorf("%w: period_end: %v", ErrMalformed, err)
		}
	}
	for _, r := range rows {
		snap.States[r.Bucket()] = model.RatingState{
			Rating:        r.Rating,
			RD:            r.RD,
			Volatility:    r.Volatility,
			MatchesPlayed: r.MatchesPlayed,
			LastActive:    r.LastActive,
			Through:       snap.PeriodEnd,
		}
	}
	return snap, nil
}
