package engine

import "github.com/rs/zerolog"

type options struct {
	tick     TickSize
	notifier Notifier
	matcher  Matcher
	logger   zerolog.Logger
}

// Option configures a Book, or an Order created outside of a book. Orders only
// read the tick size and the notifier.
type Option func(*options)

func WithTickSize(tick TickSize) Option {
	return func(o *options) { o.tick = tick }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

func WithMatcher(m Matcher) Option {
	return func(o *options) {
		if m != nil {
			o.matcher = m
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newOptions(opts []Option) options {
	o := options{
		tick:     DefaultTickSize,
		notifier: NopNotifier{},
		matcher:  PriceTime{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
