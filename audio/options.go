package audio

import "go.uber.org/zap"

// Option configures a Player or a Recorder.
type Option func(*options)

type options struct {
	name      string
	args      []string
	logger    *zap.Logger
	hook      StateFunc
	frameSize int
}

func newOptions(opts []Option) options {
	o := options{
		logger:    zap.NewNop(),
		frameSize: FrameSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) tool(t Tool) Tool {
	if o.name != "" {
		t.Name = o.name
	}
	if o.args != nil {
		t.Args = o.args
	}
	return t
}

// WithExecutable replaces the executable. When args are given they replace
// the default argument list too.
func WithExecutable(name string, args ...string) Option {
	return func(o *options) {
		o.name = name
		if len(args) > 0 {
			o.args = args
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStateHook registers fn to observe every child process state change.
func WithStateHook(fn StateFunc) Option {
	return func(o *options) {
		o.hook = fn
	}
}

// WithFrameSize sets the capture frame size in bytes.
func WithFrameSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.frameSize = n
		}
	}
}
