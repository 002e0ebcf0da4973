package dedupe

// Option applies a configuration option to the Deduper.
type Option func(d *setDeduper, capacity *int)

// WithCapacity preallocates room for n IDs.
func WithCapacity(n int) Option {
	return func(_ *setDeduper, capacity *int) {
		if n > 0 {
			*capacity = n
		}
	}
}
