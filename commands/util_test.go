package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/bridge"
)

func TestReaderSourceChunks(t *testing.T) {
	src := newReaderSource(strings.NewReader("abcdefghij"), 4)
	var got []string
	for {
		chunk, err := src.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		got = append(got, string(chunk))
	}
	if strings.Join(got, ",") != "abcd,efgh,ij" {
		t.Fatalf("chunks=%q", got)
	}
	if _, err := src.Next(); err != iterator.Done {
		t.Fatalf("after end err=%v, want iterator.Done", err)
	}
}

func TestReaderSourceEmpty(t *testing.T) {
	src := newReaderSource(strings.NewReader(""), 4)
	if _, err := src.Next(); err != iterator.Done {
		t.Fatalf("err=%v, want iterator.Done", err)
	}
}

func TestEndWithTurnsDeadlineIntoDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	mic := bridge.New(ctx, &silentMic{ctx: ctx})
	defer mic.Close()

	r := endWith[[]byte](ctx, mic)
	if _, err := r.Next(context.Background()); err != iterator.Done {
		t.Fatalf("err=%v, want iterator.Done", err)
	}
}

func TestEndWithKeepsOtherErrors(t *testing.T) {
	boom := errors.New("mic unplugged")
	mic := bridge.New(context.Background(), &failingMic{err: boom})
	defer mic.Close()

	r := endWith[[]byte](context.Background(), mic)
	if _, err := r.Next(context.Background()); err != boom {
		t.Fatalf("err=%v, want %v", err, boom)
	}
}

// silentMic blocks until its context ends.
type silentMic struct {
	ctx context.Context
}

func (m *silentMic) Next() ([]byte, error) {
	<-m.ctx.Done()
	return nil, iterator.Done
}

func (m *silentMic) Close() error { return nil }

type failingMic struct {
	err error
}

func (m *failingMic) Next() ([]byte, error) { return nil, m.err }
func (m *failingMic) Close() error          { return nil }
