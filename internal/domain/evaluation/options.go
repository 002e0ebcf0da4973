package evaluation

import (
	"fmt"
	"strings"

	"github.com/okian/wrestlerank/internal/domain/glicko"
	"github.com/okian/wrestlerank/pkg/logger"
)

// Mode selects how ratings evolve inside the evaluation window.
type Mode int

const (
	// Online updates ratings after each evaluation period is scored.
	Online Mode = iota
	// Frozen scores every evaluation match against the training baseline.
	Frozen
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == Frozen {
		return "frozen"
	}
	return "online"
}

// ParseMode parses "online" or "frozen".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "online":
		return Online, nil
	case "frozen":
		return Frozen, nil
	default:
		return Online, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Option applies a configuration option to the Harness.
type Option func(*Harness)

// WithMode sets the evaluation mode. Online is the default.
func WithMode(m Mode) Option {
	return func(h *Harness) {
		h.mode = m
	}
}

// WithRecords keeps the per-match records on each result.
func WithRecords(keep bool) Option {
	return func(h *Harness) {
		h.keepRecords = keep
	}
}

// WithEngineOptions applies engine settings other than tau.
func WithEngineOptions(opts ...glicko.Option) Option {
	return func(h *Harness) {
		h.engineOpts = append(h.engineOpts, opts...)
	}
}

// WithLogger sets a custom logger for the harness.
func WithLogger(l logger.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}
