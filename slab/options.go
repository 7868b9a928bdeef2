package slab

const (
	// DefaultAlign is the slot alignment applied within each class region.
	DefaultAlign = 8

	// DefaultMaxClasses bounds the class list.
	DefaultMaxClasses = 16
)

type config struct {
	align      int
	maxClasses int
	debug      bool
}

func defaultConfig() config {
	return config{
		align:      DefaultAlign,
		maxClasses: DefaultMaxClasses,
	}
}

// Option configures a Slab at construction time.
type Option func(*config)

// WithAlign sets the slot alignment. Must be a power of two; values below
// DefaultAlign are rounded up so the free-list link word stays aligned.
func WithAlign(n int) Option {
	return func(c *config) {
		if n < DefaultAlign {
			n = DefaultAlign
		}
		c.align = n
	}
}

// WithMaxClasses raises or lowers the cap on distinct size classes.
func WithMaxClasses(n int) Option {
	return func(c *config) {
		c.maxClasses = n
	}
}

// WithDebug enables per-class lifetime counters, double-free detection via
// a free-slot magic word, and a leak check on Close.
func WithDebug() Option {
	return func(c *config) {
		c.debug = true
	}
}
