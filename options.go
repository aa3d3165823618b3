package communicator

import (
	"github.com/joeycumines/logiface"
)

// communicatorOptions holds configuration options for Communicator creation.
type communicatorOptions struct {
	logger *logiface.Logger[logiface.Event]
	name   string
}

// Option configures a Communicator instance, see New.
type Option interface {
	applyCommunicator(*communicatorOptions)
}

// communicatorOptionImpl implements Option.
type communicatorOptionImpl struct {
	applyCommunicatorFunc func(*communicatorOptions)
}

func (o *communicatorOptionImpl) applyCommunicator(opts *communicatorOptions) {
	o.applyCommunicatorFunc(opts)
}

// WithLogger configures structured logging. Suspensions are logged at trace
// level, and completed exchanges at debug level. A nil logger (the default)
// disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &communicatorOptionImpl{func(opts *communicatorOptions) {
		opts.logger = logger
	}}
}

// WithName labels the Communicator, for logging, and [Communicator.String].
func WithName(name string) Option {
	return &communicatorOptionImpl{func(opts *communicatorOptions) {
		opts.name = name
	}}
}

// resolveCommunicatorOptions applies Option instances to communicatorOptions.
func resolveCommunicatorOptions(opts []Option) *communicatorOptions {
	cfg := &communicatorOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyCommunicator(cfg)
	}
	return cfg
}
