package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/iterator"
)

// traceSource records every Next call into a shared event log.
type traceSource struct {
	mu     *sync.Mutex
	events *[]string
	items  [][]byte
	i      int
	closed atomic.Int32
}

func (s *traceSource) Next() ([]byte, error) {
	if s.i >= len(s.items) {
		return nil, iterator.Done
	}
	s.mu.Lock()
	*s.events = append(*s.events, fmt.Sprintf("produce %d", s.i))
	s.mu.Unlock()
	v := s.items[s.i]
	s.i++
	return v, nil
}

func (s *traceSource) Close() error {
	s.closed.Add(1)
	return nil
}

type failingSource struct {
	items []string
	err   error
}

func (s *failingSource) Next() (string, error) {
	if len(s.items) == 0 {
		return "", s.err
	}
	v := s.items[0]
	s.items = s.items[1:]
	return v, nil
}

func (s *failingSource) Close() error { return nil }

// endless never runs out; it counts how often it was closed.
type endless struct {
	n      atomic.Int64
	closed atomic.Int32
}

func (e *endless) Next() (int64, error) { return e.n.Add(1), nil }

func (e *endless) Close() error {
	e.closed.Add(1)
	return nil
}

func TestStreamPreservesItems(t *testing.T) {
	in := [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")}
	got, err := Collect(context.Background(), New(context.Background(), FromSlice(in)))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("got %d items, want %d", len(got), len(in))
	}
	for i := range in {
		if string(got[i]) != string(in[i]) {
			t.Fatalf("item %d=%q, want %q", i, got[i], in[i])
		}
	}
}

func TestStreamHandsOffOneItemAtATime(t *testing.T) {
	var mu sync.Mutex
	var events []string
	src := &traceSource{
		mu:     &mu,
		events: &events,
		items:  [][]byte{[]byte("a"), []byte("bb"), []byte("ccc"), []byte("dddd")},
	}
	ctx := context.Background()
	s := New(ctx, src)
	for i := 0; ; i++ {
		v, err := s.Next(ctx)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		mu.Lock()
		events = append(events, fmt.Sprintf("consume %d", i))
		mu.Unlock()
		if string(v) != string(src.items[i]) {
			t.Fatalf("item %d=%q, want %q", i, v, src.items[i])
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	index := func(ev string) int {
		for i, e := range events {
			if e == ev {
				return i
			}
		}
		t.Fatalf("event %q missing from %v", ev, events)
		return -1
	}
	for i := 0; i+2 < len(src.items); i++ {
		if index(fmt.Sprintf("consume %d", i)) > index(fmt.Sprintf("produce %d", i+2)) {
			t.Fatalf("producer ran ahead of consumer: %v", events)
		}
	}
	if n := src.closed.Load(); n != 1 {
		t.Fatalf("source closed %d times, want 1", n)
	}
}

func TestStreamEmptySource(t *testing.T) {
	s := New(context.Background(), FromSlice[string](nil))
	if _, err := s.Next(context.Background()); !errors.Is(err, iterator.Done) {
		t.Fatalf("err=%v, want iterator.Done", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStreamSourceErrorIsUnchanged(t *testing.T) {
	boom := errors.New("vendor exploded")

	s := New(context.Background(), &failingSource{err: boom})
	if _, err := s.Next(context.Background()); err != boom {
		t.Fatalf("first err=%v, want %v", err, boom)
	}
	s.Close()

	got, err := Collect(context.Background(), New(context.Background(), &failingSource{items: []string{"x", "y"}, err: boom}))
	if err != boom {
		t.Fatalf("collect err=%v, want %v", err, boom)
	}
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("items before failure=%v, want [x y]", got)
	}
}

func TestStreamCloseStopsEndlessSource(t *testing.T) {
	src := &endless{}
	ctx := context.Background()
	s := New(ctx, src)
	for want := int64(1); want <= 3; want++ {
		got, err := s.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != want {
			t.Fatalf("item=%d, want %d", got, want)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if n := src.closed.Load(); n != 1 {
		t.Fatalf("source closed %d times, want 1", n)
	}
	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("next after close err=%v, want context.Canceled", err)
	}
}

func TestStreamCancelIsNotExhaustion(t *testing.T) {
	src := &endless{}
	ctx, cancel := context.WithCancel(context.Background())
	s := New(ctx, src)
	for i := 0; i < 3; i++ {
		if _, err := s.Next(context.Background()); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
	cancel()

	rest, err := Collect(context.Background(), s)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("collect after cancel: %d items, err=%v, want context.Canceled", len(rest), err)
	}
	if n := src.closed.Load(); n != 1 {
		t.Fatalf("source closed %d times, want 1", n)
	}
}

// doneOnCancel reports iterator.Done once its context ends, the way a killed
// capture does.
type doneOnCancel struct {
	ctx context.Context
}

func (d *doneOnCancel) Next() (int, error) {
	<-d.ctx.Done()
	return 0, iterator.Done
}

func (d *doneOnCancel) Close() error { return nil }

func TestStreamDeadlineIsNotExhaustion(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s, err := Open(ctx, func(ctx context.Context) (Source[int], error) {
		return &doneOnCancel{ctx: ctx}, nil
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if _, err := s.Next(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v, want deadline exceeded", err)
	}
}

func TestStreamYieldsAfterEveryHandoff(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(ev string) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}
	restore := gosched
	gosched = func() {
		record("yield")
		restore()
	}
	defer func() { gosched = restore }()

	src := &traceSource{
		mu:     &mu,
		events: &events,
		items:  [][]byte{[]byte("a"), []byte("bb"), []byte("ccc")},
	}
	got, err := Collect(context.Background(), New(context.Background(), src))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d items, want 3", len(got))
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"produce 0", "yield", "produce 1", "yield", "produce 2", "yield"}
	if fmt.Sprint(events) != fmt.Sprint(want) {
		t.Fatalf("events=%v, want %v", events, want)
	}
}

func TestStreamNextHonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := New(context.Background(), &blockingSource{release: block})
	defer func() {
		go s.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v, want deadline exceeded", err)
	}
}

type blockingSource struct {
	release chan struct{}
}

func (b *blockingSource) Next() (int, error) {
	<-b.release
	return 0, iterator.Done
}

func (b *blockingSource) Close() error { return nil }

func TestOpenCancelsSourceContextOnClose(t *testing.T) {
	var sourceCtx context.Context
	s, err := Open(context.Background(), func(ctx context.Context) (Source[int], error) {
		sourceCtx = ctx
		return &ctxSource{ctx: ctx}, nil
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if sourceCtx.Err() == nil {
		t.Fatalf("source context still live after Close")
	}
}

// ctxSource blocks in Next until its context is cancelled.
type ctxSource struct {
	ctx context.Context
}

func (c *ctxSource) Next() (int, error) {
	<-c.ctx.Done()
	return 0, c.ctx.Err()
}

func (c *ctxSource) Close() error { return nil }

func TestOpenError(t *testing.T) {
	boom := errors.New("no such voice")
	_, err := Open(context.Background(), func(context.Context) (Source[int], error) {
		return nil, boom
	})
	if err != boom {
		t.Fatalf("err=%v, want %v", err, boom)
	}
}

func TestStreamAllStopsEarly(t *testing.T) {
	src := &endless{}
	ctx := context.Background()
	s := New(ctx, src)
	var got []int64
	for v, err := range s.All(ctx) {
		if err != nil {
			t.Fatalf("all: %v", err)
		}
		got = append(got, v)
		if len(got) == 5 {
			break
		}
	}
	s.Close()
	if len(got) != 5 || got[4] != 5 {
		t.Fatalf("got=%v, want 1..5", got)
	}
}
