package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMaxLimit caps the number of entries a single TopN may return.
func WithMaxLimit(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}
