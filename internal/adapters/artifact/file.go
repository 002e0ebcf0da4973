package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// FileName returns the artifact file name for tau.
func FileName(tau float64) string {
	return fmt.Sprintf("glicko2_tau-%.3f.json", tau)
}

// Write renders snap into dir and returns the written path.
func Write(dir string, snap *model.Snapshot) (string, error) {
	doc, err := Build(snap)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(snap.Tau))
	if err := writeJSON(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// Read loads an artifact written by Write.
func Read(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &doc, nil
}

// Summary is the evaluation output file.
type Summary struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Mode        string                    `json:"mode"`
	TrainEnd    time.Time                 `json:"train_end"`
	EvalStart   time.Time                 `json:"eval_start"`
	EvalEnd     *time.Time                `json:"eval_end"`
	Taus        []float64                 `json:"taus"`
	Results     []*model.EvaluationResult `json:"results"`
}

// WriteSummary writes s to path, creating parent directories.
func WriteSummary(path string, s *Summary) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary dir: %w", err)
		}
	}
	return writeJSON(path, s)
}

// writeJSON writes v to a temporary sibling and renames it over path.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
