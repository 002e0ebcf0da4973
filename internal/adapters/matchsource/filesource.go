package matchsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// id decodes a JSON string or number as a string.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*i = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = id(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*i = id(n.String())
	return nil
}

// record is one match in a JSON export.
type record struct {
	ID          id     `json:"id"`
	Date        string `json:"date"`
	WeightClass id     `json:"weight_class"`
	Winner      id     `json:"winner_id"`
	Top         id     `json:"top_id"`
	Bottom      id     `json:"bottom_id"`
}

func toRecord(m model.Match) record {
	return record{
		ID:          id(m.ID),
		Date:        m.Date.UTC().Format(time.RFC3339),
		WeightClass: id(m.WeightClass),
		Winner:      id(m.Winner),
		Top:         id(m.CompetitorA),
		Bottom:      id(m.CompetitorB),
	}
}

// FileSource reads a JSON array of match records.
type FileSource struct {
	path string
}

// NewFileSource returns a source reading path.
func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

// Matches implements Source.
func (f *FileSource) Matches(_ context.Context, r Range) ([]model.Match, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read matches: %w", err)
	}
	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode matches %s: %w", strconv.Quote(f.path), err)
	}
	out := make([]model.Match, 0, len(records))
	for _, rec := range records {
		m := model.Match{
			ID:          string(rec.ID),
			CompetitorA: string(rec.Top),
			CompetitorB: string(rec.Bottom),
			Winner:      string(rec.Winner),
			WeightClass: string(rec.WeightClass),
			Date:        parseDate(rec.Date),
		}
		if r.Contains(m.Date) {
			out = append(out, m)
		}
	}
	return out, nil
}

// WriteFile writes matches as a JSON array readable by FileSource.
func WriteFile(path string, matches []model.Match) error {
	records := make([]record, 0, len(matches))
	for _, m := range matches {
		records = append(records, toRecord(m))
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode matches: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write matches: %w", err)
	}
	return nil
}
