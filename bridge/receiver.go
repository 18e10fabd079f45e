package bridge

import (
	"context"

	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/queue"
)

type chanReceiver[T any] struct {
	ch <-chan T
}

// FromChan adapts a channel to a Receiver. A closed channel ends the
// sequence.
func FromChan[T any](ch <-chan T) Receiver[T] {
	return chanReceiver[T]{ch: ch}
}

func (r chanReceiver[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case v, ok := <-r.ch:
		if !ok {
			return zero, iterator.Done
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// replay is a Source over an in-memory queue.
type replay[T any] struct {
	q *queue.Queue[T]
}

// FromSlice returns a Source that yields items in order.
func FromSlice[T any](items []T) Source[T] {
	q := queue.New[T]()
	for _, v := range items {
		q.Enqueue(v)
	}
	return &replay[T]{q: q}
}

func (r *replay[T]) Next() (T, error) {
	v, ok := r.q.Dequeue()
	if !ok {
		var zero T
		return zero, iterator.Done
	}
	return v, nil
}

func (r *replay[T]) Close() error {
	r.q.Drain()
	return nil
}

// Materialize reads r to the end and returns a Source that replays what it
// read. Nothing reaches the consumer until r is exhausted and memory grows
// with the total input, so prefer Relay unless the consumer needs the whole
// input up front.
func Materialize[T any](ctx context.Context, r Receiver[T]) (Source[T], error) {
	q := queue.New[T]()
	for {
		v, err := r.Next(ctx)
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, err
		}
		q.Enqueue(v)
	}
	return &replay[T]{q: q}, nil
}

type relay[T any] struct {
	items  chan T
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// Relay forwards r into a Source through a channel holding at most size
// items. The goroutine reading r blocks while the channel is full, so a slow
// consumer throttles the producer. Closing the Source stops the goroutine.
func Relay[T any](ctx context.Context, r Receiver[T], size int) Source[T] {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	rl := &relay[T]{
		items:  make(chan T, size),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go rl.run(ctx, r)
	return rl
}

func (rl *relay[T]) run(ctx context.Context, r Receiver[T]) {
	defer close(rl.done)
	defer close(rl.items)
	for {
		v, err := r.Next(ctx)
		if err != nil {
			if !errors.Is(err, iterator.Done) {
				rl.err = err
			}
			return
		}
		select {
		case rl.items <- v:
		case <-ctx.Done():
			rl.err = ctx.Err()
			return
		}
	}
}

func (rl *relay[T]) Next() (T, error) {
	v, ok := <-rl.items
	if !ok {
		var zero T
		if rl.err != nil {
			return zero, rl.err
		}
		return zero, iterator.Done
	}
	return v, nil
}

func (rl *relay[T]) Close() error {
	rl.cancel()
	for range rl.items {
	}
	<-rl.done
	return nil
}
