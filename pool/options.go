package pool

import "io"

// DefaultAlign is the default slot alignment (one machine word).
const DefaultAlign = 8

type config struct {
	align       int
	debug       bool
	zeroOnAlloc bool
	zeroOnFree  bool
	logw        io.Writer
}

func defaultConfig() config {
	return config{align: DefaultAlign}
}

// Option configures a pool at construction time.
type Option func(*config)

// WithAlign sets the minimum slot alignment. Must be a power of two;
// use 16 for SSE payloads, 32 for AVX, and so on.
func WithAlign(n int) Option {
	return func(c *config) { c.align = n }
}

// WithDebug enables the debug companion: a per-slot allocation bitmap
// (reserved from the tail of the buffer), double-free and leak detection,
// poisoning, and lifetime counters. Integrity violations panic.
func WithDebug() Option {
	return func(c *config) { c.debug = true }
}

// WithZeroOnAlloc zero-fills every slot as it is handed out.
func WithZeroOnAlloc() Option {
	return func(c *config) { c.zeroOnAlloc = true }
}

// WithZeroOnFree zero-fills every slot as it is returned. On a debug
// pool this also suppresses the free-magic sentinel (a zeroed slot
// cannot carry it), leaving the allocation bitmap as the sole
// double-free detector.
func WithZeroOnFree() Option {
	return func(c *config) { c.zeroOnFree = true }
}

// WithLogOutput redirects the debug trace output of AllocTraced and
// FreeTraced. The default is os.Stderr.
func WithLogOutput(w io.Writer) Option {
	return func(c *config) { c.logw = w }
}
