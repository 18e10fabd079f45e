package commands

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/bridge"
)

// readerSource yields the content of r in chunks of at most size bytes.
type readerSource struct {
	r    io.Reader
	size int
	eof  bool
}

func newReaderSource(r io.Reader, size int) *readerSource {
	return &readerSource{r: r, size: size}
}

func (s *readerSource) Next() ([]byte, error) {
	if s.eof {
		return nil, iterator.Done
	}
	buf := make([]byte, s.size)
	n, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
		return buf, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
		return buf[:n], nil
	case errors.Is(err, io.EOF):
		s.eof = true
		return nil, iterator.Done
	default:
		return nil, errors.Wrap(err, "read audio")
	}
}

func (s *readerSource) Close() error {
	if c, ok := s.r.(io.Closer); ok && s.r != os.Stdin {
		return c.Close()
	}
	return nil
}

// openOutput returns stdout for "" or "-", otherwise creates path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create output")
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// untilDone treats the end of ctx as the end of r. The error r returns
// because ctx ended becomes iterator.Done, so a capture deadline closes the
// audio normally instead of failing whatever consumes it.
type untilDone[T any] struct {
	ctx context.Context
	r   bridge.Receiver[T]
}

func endWith[T any](ctx context.Context, r bridge.Receiver[T]) bridge.Receiver[T] {
	return untilDone[T]{ctx: ctx, r: r}
}

func (u untilDone[T]) Next(ctx context.Context) (T, error) {
	v, err := u.r.Next(ctx)
	if err != nil && u.ctx.Err() != nil && errors.Is(err, u.ctx.Err()) {
		var zero T
		return zero, iterator.Done
	}
	return v, err
}
