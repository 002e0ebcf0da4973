package glicko

// Default engine configuration.
const (
	DefaultTau           = 0.5
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 100
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTau sets the system constant constraining volatility change.
func WithTau(tau float64) Option {
	return func(e *Engine) {
		if tau > 0 {
			e.tau = tau
		}
	}
}

// WithTolerance sets the convergence tolerance of the volatility solve.
func WithTolerance(tol float64) Option {
	return func(e *Engine) {
		if tol > 0 {
			e.tolerance = tol
		}
	}
}

// WithMaxIterations caps both the bracket search and the Illinois iteration.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithMaxRD sets the display-scale deviation ceiling.
func WithMaxRD(rd float64) Option {
	return func(e *Engine) {
		if rd > 0 {
			e.maxRD = rd
		}
	}
}
