package stack

// DefaultAlign is the alignment used by Alloc and the minimum honored by
// AllocAligned. It can never drop below the header word size, or the
// back-offset header would straddle an unaligned address.
const DefaultAlign = 8

type config struct {
	debug      bool
	strictLIFO bool
}

func defaultConfig() config {
	return config{}
}

// Option configures a Stack at construction time.
type Option func(*config)

// WithDebug enables instrumentation: a shadow record of live allocations,
// lifetime counters, and poisoning of released memory. Costs a small heap
// allocation per outstanding entry.
func WithDebug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// WithValidateLIFO makes Free panic unless the freed pointer is the most
// recent live allocation. Implies WithDebug. Without it, freeing an older
// allocation silently releases everything allocated after it as well.
func WithValidateLIFO() Option {
	return func(c *config) {
		c.debug = true
		c.strictLIFO = true
	}
}
