// Package glicko implements the Glicko-2 rating period update and inactivity decay.
//
// The engine is pure: it never retains state between calls and is safe for
// concurrent use by independent replays.
package glicko

import (
	"math"

	"github.com/okian/wrestlerank/internal/domain/model"
)

// Scale converts between the display scale and the internal Glicko-2 scale.
const Scale = 173.7178

// Engine performs Glicko-2 updates for a fixed tau.
type Engine struct {
	tau           float64
	tolerance     float64
	maxIterations int
	maxRD         float64
}

// New creates an Engine with defaults overridden by opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		tau:           DefaultTau,
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
		maxRD:         model.MaxRD,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tau returns the engine's volatility constraint.
func (e *Engine) Tau() float64 { return e.tau }

// Outcome is one result against an opponent whose state is fixed for the period.
type Outcome struct {
	Opponent model.RatingState
	Score    float64 // 1 for a win, 0 for a loss
}

// Solve reports the result of a volatility solve.
type Solve struct {
	Sigma      float64
	Iterations int
	Converged  bool
}

// ToInternal converts a display rating and RD to (mu, phi).
func ToInternal(rating, rd float64) (mu, phi float64) {
	return (rating - model.DefaultRating) / Scale, rd / Scale
}

// FromInternal converts (mu, phi) back to a display rating and RD.
func FromInternal(mu, phi float64) (rating, rd float64) {
	return mu*Scale + model.DefaultRating, phi * Scale
}

// G dampens the impact of an opponent by their uncertainty.
func G(phi float64) float64 {
	return 1 / math.Sqrt(1+3*phi*phi/(math.Pi*math.Pi))
}

// E is the expected score against an opponent at (muJ, phiJ).
func E(mu, muJ, phiJ float64) float64 {
	return 1 / (1 + math.Exp(-G(phiJ)*(mu-muJ)))
}

// WinProbability returns the expected score of winner against loser.
func WinProbability(winner, loser model.RatingState) float64 {
	mu, _ := ToInternal(winner.Rating, winner.RD)
	muJ, phiJ := ToInternal(loser.Rating, loser.RD)
	return E(mu, muJ, phiJ)
}

// Decay applies one empty rating period: phi' = sqrt(phi^2 + sigma^2), capped.
func (e *Engine) Decay(s model.RatingState) model.RatingState {
	phi := s.RD / Scale
	phi = math.Sqrt(phi*phi + s.Volatility*s.Volatility)
	s.RD = math.Min(phi*Scale, e.maxRD)
	return s
}

// DecayN applies k empty periods one after another.
func (e *Engine) DecayN(s model.RatingState, k int) model.RatingState {
	for i := 0; i < k; i++ {
		s = e.Decay(s)
	}
	return s
}

// Update folds every outcome of one rating period into a single batch update.
// MatchesPlayed advances by len(outcomes); period bookkeeping is left to the caller.
func (e *Engine) Update(s model.RatingState, outcomes []Outcome) (model.RatingState, Solve) {
	if len(outcomes) == 0 {
		return s, Solve{Sigma: s.Volatility, Converged: true}
	}

	mu, phi := ToInternal(s.Rating, s.RD)
	sigma := s.Volatility

	var vInv, sum float64
	for _, o := range outcomes {
		muJ, phiJ := ToInternal(o.Opponent.Rating, o.Opponent.RD)
		g := G(phiJ)
		expected := E(mu, muJ, phiJ)
		vInv += g * g * expected * (1 - expected)
		sum += g * (o.Score - expected)
	}

	s.MatchesPlayed += len(outcomes)
	if vInv == 0 {
		return s, Solve{Sigma: sigma, Converged: true}
	}

	v := 1 / vInv
	delta := v * sum
	solve := e.SolveVolatility(phi, sigma, delta, v)

	phiStar := math.Sqrt(phi*phi + solve.Sigma*solve.Sigma)
	phiPrime := 1 / math.Sqrt(1/(phiStar*phiStar)+1/v)
	muPrime := mu + phiPrime*phiPrime*sum

	rating, rd := FromInternal(muPrime, phiPrime)
	s.Rating = rating
	s.RD = math.Min(rd, e.maxRD)
	s.Volatility = solve.Sigma
	return s, solve
}

// SolveVolatility finds sigma' by the Illinois method on x = ln(sigma^2).
// It never fails: when the iteration cap is reached the bracket midpoint is accepted.
func (e *Engine) SolveVolatility(phi, sigma, delta, v float64) Solve {
	a := math.Log(sigma * sigma)
	tau2 := e.tau * e.tau
	phi2 := phi * phi
	f := func(x float64) float64 {
		ex := math.Exp(x)
		d := phi2 + v + ex
		return ex*(delta*delta-phi2-v-ex)/(2*d*d) - (x-a)/tau2
	}

	A := a
	var B float64
	if delta*delta > phi2+v {
		B = math.Log(delta*delta - phi2 - v)
	} else {
		k := 1
		for f(a-float64(k)*e.tau) < 0 && k < e.maxIterations {
			k++
		}
		B = a - float64(k)*e.tau
	}

	fA, fB := f(A), f(B)
	iter := 0
	for math.Abs(B-A) > e.tolerance {
		if iter >= e.maxIterations || fB == fA {
			return Solve{Sigma: math.Exp((A + B) / 4), Iterations: iter, Converged: false}
		}
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2
		}
		B, fB = C, fC
		iter++
	}
	return Solve{Sigma: math.Exp(A / 2), Iterations: iter, Converged: true}
}
