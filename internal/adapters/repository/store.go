// Package repository holds the in-memory ranking index served by the API.
package repository

import (
	"context"

	"github.com/okian/wrestlerank/internal/domain/leaderboard"
	"github.com/okian/wrestlerank/internal/domain/model"
)

// Store provides read access to ranked ratings and a full-replace write.
type Store interface {
	// Replace swaps the whole index for rows. Readers see either the old or
	// the new index, never a mix.
	Replace(ctx context.Context, rows []model.Row) error

	// Weights lists indexed weight classes in ascending order.
	Weights(ctx context.Context) []int

	// TopN returns up to q.Limit ranked entries of a weight class.
	// A zero limit returns every entry.
	TopN(ctx context.Context, weight int, q leaderboard.Query) ([]leaderboard.Entry, error)

	// Rank returns the position of a competitor within a weight class.
	// Returns ErrNotFound if the bucket is unknown.
	Rank(ctx context.Context, weight int, competitorID string) (leaderboard.Entry, error)

	// Count returns the number of indexed buckets.
	Count(ctx context.Context) int
}
