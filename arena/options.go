package arena

type config struct {
	debug    bool
	blockMin int
}

func defaultConfig() config {
	return config{blockMin: DefaultBlockSize}
}

// Option configures an arena at construction time.
type Option func(*config)

// WithDebug enables the debug companion: allocation counters, peak and
// alignment-waste tracking, poisoning, and optional record tracking.
// Release-mode arenas carry none of this state.
func WithDebug() Option {
	return func(c *config) { c.debug = true }
}

// WithBlockSize overrides the minimum block size used by growth-enabled
// arenas. Values below 1 keep the default.
func WithBlockSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.blockMin = n
		}
	}
}
