// Package synth generates reproducible wrestling match histories for demos
// and load tests. Winners are drawn from a logistic model over hidden
// wrestler strengths, so a rating system should recover the ordering.
package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/wrestlerank/internal/domain/model"
	"github.com/okian/wrestlerank/pkg/logger"
)

// namespace scopes generated ids.
var namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("wrestlerank/synth"))

// Wrestler is one generated competitor.
type Wrestler struct {
	ID       string
	Weight   string
	Strength float64
}

// Season is a generated roster and its matches.
type Season struct {
	Wrestlers []Wrestler
	Matches   []model.Match
	// Malformed counts matches emitted with noise.
	Malformed int
}

// Generator draws seasons from a seeded random stream.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// New returns a generator. Equal options yield identical seasons.
func New(opts ...Option) *Generator {
	cfg := newConfig(opts)
	return &Generator{cfg: cfg, rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))}
}

// Config returns the effective configuration.
func (g *Generator) Config() Config { return g.cfg }

func (g *Generator) id(kind string, i int) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s/%d/%d", kind, g.cfg.Seed, i))).String()
}

func (g *Generator) roster() ([]Wrestler, map[string][]int) {
	wrestlers := make([]Wrestler, g.cfg.Wrestlers)
	byWeight := map[string][]int{}
	for i := range wrestlers {
		w := g.cfg.Weights[i%len(g.cfg.Weights)]
		wrestlers[i] = Wrestler{
			ID:       g.id("wrestler", i),
			Weight:   w,
			Strength: g.rng.NormFloat64() * strengthSpread,
		}
		byWeight[w] = append(byWeight[w], i)
	}
	return wrestlers, byWeight
}

// winProbability is the logistic win chance of strength a over b.
func winProbability(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// Generate draws a season.
func (g *Generator) Generate(ctx context.Context) (*Season, error) {
	wrestlers, byWeight := g.roster()

	// Only weights with at least two wrestlers can host a match.
	var weights []string
	for _, w := range g.cfg.Weights {
		if len(byWeight[w]) >= 2 {
			weights = append(weights, w)
		}
	}
	if len(weights) == 0 && g.cfg.Matches > 0 {
		return nil, fmt.Errorf("%w: no weight class has two wrestlers", ErrInvalidConfig)
	}

	end := g.cfg.Start.AddDate(0, g.cfg.Months, 0)
	span := end.Sub(g.cfg.Start)
	season := &Season{Wrestlers: wrestlers, Matches: make([]model.Match, 0, g.cfg.Matches)}

	for i := 0; i < g.cfg.Matches; i++ {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("generate matches: %w", err)
			}
		}
		weight := weights[g.rng.IntN(len(weights))]
		pool := byWeight[weight]
		ja, jb := g.rng.IntN(len(pool)), g.rng.IntN(len(pool)-1)
		if jb >= ja {
			jb++
		}
		a, b := wrestlers[pool[ja]], wrestlers[pool[jb]]

		winner := b.ID
		if g.rng.Float64() < winProbability(a.Strength, b.Strength) {
			winner = a.ID
		}
		m := model.Match{
			ID:          g.id("match", i),
			CompetitorA: a.ID,
			CompetitorB: b.ID,
			Winner:      winner,
			WeightClass: weight,
			Date:        g.cfg.Start.Add(time.Duration(g.rng.Int64N(int64(span)))).Truncate(time.Second),
		}
		if g.cfg.NoiseRate > 0 && g.rng.Float64() < g.cfg.NoiseRate {
			g.corrupt(&m, season.Matches)
			season.Malformed++
		}
		season.Matches = append(season.Matches, m)
	}

	logger.Get().Named("synth").Info(ctx, "season generated",
		logger.Int("wrestlers", len(wrestlers)),
		logger.Int("matches", len(season.Matches)),
		logger.Int("malformed", season.Malformed),
	)
	return season, nil
}

// corrupt applies one kind of noise to m.
func (g *Generator) corrupt(m *model.Match, prior []model.Match) {
	switch g.rng.IntN(4) {
	case 0:
		if len(prior) > 0 {
			m.ID = prior[g.rng.IntN(len(prior))].ID
			return
		}
		m.ID = ""
	case 1:
		m.CompetitorB = m.CompetitorA
		m.Winner = m.CompetitorA
	case 2:
		m.Winner = g.id("outsider", g.rng.IntN(1<<20))
	default:
		m.WeightClass = "EXH"
	}
}
