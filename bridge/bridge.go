package bridge

import (
	"context"
	"iter"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

// Source is a blocking producer of items.
// Next returns iterator.Done when there are no more items.
type Source[T any] interface {
	Next() (T, error)
	Close() error
}

// Receiver is a context-aware producer of items.
// Next returns iterator.Done when there are no more items.
type Receiver[T any] interface {
	Next(ctx context.Context) (T, error)
}

// Option configures a Stream.
type Option func(*options)

type options struct {
	logger *zap.Logger
	name   string
}

// WithLogger sets the logger used for stream lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels the stream in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Stream is the non-blocking view of a Source. Items come out in the order
// the Source produced them, each exactly once.
type Stream[T any] struct {
	items  chan T
	done   chan struct{}
	cancel context.CancelFunc
	log    *zap.Logger

	// err and closeErr are written by the pump before items and done are
	// closed, respectively.
	err      error
	closeErr error
}

var _ Receiver[int] = (*Stream[int])(nil)

// New starts pumping src. The pump stops when src is exhausted, when src
// fails, when ctx is done or when the Stream is closed; src is closed exactly
// once in every case. Only exhaustion ends the Stream with iterator.Done.
func New[T any](ctx context.Context, src Source[T], opts ...Option) *Stream[T] {
	s, _ := Open(ctx, func(context.Context) (Source[T], error) { return src, nil }, opts...)
	return s
}

// Open calls open with a context that is cancelled when the returned Stream
// is closed, then pumps the Source it returns. Sources that bind a request
// or a child process to that context are interrupted by Close even while
// blocked inside Next.
func Open[T any](ctx context.Context, open func(ctx context.Context) (Source[T], error), opts ...Option) (*Stream[T], error) {
	o := options{logger: zap.NewNop(), name: "stream"}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(ctx)
	src, err := open(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	s := &Stream[T]{
		items:  make(chan T),
		done:   make(chan struct{}),
		cancel: cancel,
		log:    o.logger.With(zap.String("stream", o.name)),
	}
	go s.pump(ctx, src)
	return s, nil
}

// gosched runs after every handoff so the consumer gets the processor before
// the source is asked for the next item.
var gosched = runtime.Gosched

func (s *Stream[T]) pump(ctx context.Context, src Source[T]) {
	defer close(s.done)

	var n int
loop:
	for ctx.Err() == nil {
		v, err := src.Next()
		if err != nil {
			if !errors.Is(err, iterator.Done) {
				s.err = err
			}
			break
		}
		select {
		case s.items <- v:
			n++
		case <-ctx.Done():
			break loop
		}
		gosched()
	}
	// A source cut short by cancellation must not read as exhausted, even
	// when the source itself reported iterator.Done on the way out.
	if s.err == nil && ctx.Err() != nil {
		s.err = ctx.Err()
	}

	s.closeErr = src.Close()
	close(s.items)

	switch {
	case ctx.Err() != nil:
		s.log.Debug("stream cancelled", zap.Int("items", n), zap.Error(s.err))
	case s.err != nil:
		s.log.Debug("source failed", zap.Int("items", n), zap.Error(s.err))
	default:
		s.log.Debug("source exhausted", zap.Int("items", n))
	}
	if s.closeErr != nil {
		s.log.Warn("close source", zap.Error(s.closeErr))
	}
}

// Next returns the next item. It returns iterator.Done after the last item
// of an exhausted Source and the Source's own error if it failed. If the
// Stream's context was cancelled or the Stream closed before the Source ran
// out, Next returns that context's error instead. It returns ctx.Err() if
// ctx ends first.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-s.items:
		if !ok {
			if s.err != nil {
				return zero, s.err
			}
			return zero, iterator.Done
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// All returns an iterator over the remaining items for use with range
// loops. A non-nil error is yielded once and ends the iteration.
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := s.Next(ctx)
			if err != nil {
				if errors.Is(err, iterator.Done) {
					return
				}
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Close stops the pump and waits until the Source has been closed.
// It returns the error from the Source's Close. Close is idempotent.
func (s *Stream[T]) Close() error {
	s.cancel()
	<-s.done
	return s.closeErr
}

// Collect reads every remaining item from s and closes it.
func Collect[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	var items []T
	for v, err := range s.All(ctx) {
		if err != nil {
			s.Close()
			return items, err
		}
		items = append(items, v)
	}
	return items, s.Close()
}
