package deployment

import (
	"github.com/dogmatiq/dodeca/logging"
)

var (
	// DefaultCacheCapacity is the default number of executable processes held
	// by each of the state's caches.
	//
	// It is overridden by the WithCacheCapacity() option.
	DefaultCacheCapacity = 1000

	// DefaultLogger is the default target for log messages produced by the
	// state.
	//
	// It is overridden by the WithLogger() option.
	DefaultLogger = logging.DefaultLogger
)

// Option configures the behavior of a State.
type Option func(*options)

// WithCacheCapacity returns an option that sets the number of executable
// processes held by each of the state's caches.
//
// If this option is omitted or n is zero DefaultCacheCapacity is used.
func WithCacheCapacity(n int) Option {
	if n < 0 {
		panic("capacity must not be negative")
	}

	return func(opts *options) {
		opts.CacheCapacity = n
	}
}

// WithLogger returns an option that sets the target for log messages produced
// by the state.
//
// If this option is omitted or l is nil DefaultLogger is used.
func WithLogger(l logging.Logger) Option {
	return func(opts *options) {
		opts.Logger = l
	}
}

// options is a container for a fully-resolved set of State options.
type options struct {
	CacheCapacity int
	Logger        logging.Logger
}

// resolveOptions returns a fully-populated set of options built from the given
// set of option functions.
func resolveOptions(opts []Option) *options {
	o := &options{}

	for _, opt := range opts {
		opt(o)
	}

	if o.CacheCapacity == 0 {
		o.CacheCapacity = DefaultCacheCapacity
	}

	if o.Logger == nil {
		o.Logger = DefaultLogger
	}

	return o
}
