package audio

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/bridge"
)

const (
	// FrameSize is the capture read size, about half a second of 16 kHz
	// mono S16LE audio.
	FrameSize = 16384

	// DefaultSampleRate is used when a Recorder is given a non-positive rate.
	DefaultSampleRate = 16000
)

// Recorder spawns a capture tool and reads raw PCM frames from its standard
// output.
type Recorder struct {
	sampleRate int
	tool       Tool
	opts       options
}

// NewRecorder returns a Recorder for gst-launch-1.0 capturing at sampleRate.
func NewRecorder(sampleRate int, opts ...Option) *Recorder {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	o := newOptions(opts)
	return &Recorder{
		sampleRate: sampleRate,
		tool:       o.tool(CaptureTool(sampleRate)),
		opts:       o,
	}
}

// SampleRate returns the capture rate in Hz.
func (r *Recorder) SampleRate() int {
	return r.sampleRate
}

// Start spawns the capture tool. The caller must Close the returned Capture
// unless Next has already returned a non-nil error.
func (r *Recorder) Start() (*Capture, error) {
	path, err := r.tool.LookPath()
	if err != nil {
		return nil, err
	}
	return r.spawn(nil, path)
}

// StartContext spawns the capture tool bound to a context that ends when
// ctx does or when the returned stream is closed, whichever comes first.
// Closing the stream kills the child even while a read is pending.
func (r *Recorder) StartContext(ctx context.Context) (*bridge.Stream[[]byte], error) {
	path, err := r.tool.LookPath()
	if err != nil {
		return nil, err
	}
	return bridge.Open(ctx, func(ctx context.Context) (bridge.Source[[]byte], error) {
		c, err := r.spawn(ctx, path)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, bridge.WithLogger(r.opts.logger), bridge.WithName("capture"))
}

func (r *Recorder) spawn(ctx context.Context, path string) (*Capture, error) {
	proc := newProcess(ctx, path, r.tool.Args, r.opts)
	stdout, err := proc.cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "capture stdout")
	}
	if err := proc.start(); err != nil {
		return nil, err
	}
	proc.log.Debug("capture started", zap.Int("pid", proc.pid()), zap.Int("sample_rate", r.sampleRate))
	proc.enter(StateStreaming)
	return &Capture{proc: proc, stdout: stdout, frameSize: r.opts.frameSize}, nil
}

// Capture is a running capture. Frames are FrameSize bytes long except the
// last, which may be shorter.
type Capture struct {
	proc      *process
	stdout    io.ReadCloser
	frameSize int

	released bool
	err      error
}

// Pid returns the child's process id.
func (c *Capture) Pid() int {
	return c.proc.pid()
}

// Next returns the next frame. After the child closes its output Next
// returns iterator.Done, or the child's exit error if it failed.
func (c *Capture) Next() ([]byte, error) {
	if c.released {
		if c.err != nil {
			return nil, c.err
		}
		return nil, iterator.Done
	}

	frame := make([]byte, c.frameSize)
	n, err := io.ReadFull(c.stdout, frame)
	switch {
	case err == nil:
		return frame, nil
	case errors.Is(err, io.ErrUnexpectedEOF):
		c.finish(false)
		return frame[:n], nil
	case errors.Is(err, io.EOF):
		c.finish(false)
		if c.err != nil {
			return nil, c.err
		}
		return nil, iterator.Done
	default:
		if c.proc.cancelled() {
			c.finish(true)
			return nil, iterator.Done
		}
		c.finish(true)
		return nil, errors.Wrap(err, "read capture")
	}
}

// Close releases the child: the pipe is closed, a still running child is
// killed, and the process is waited for. Close is idempotent.
func (c *Capture) Close() error {
	if c.released {
		return nil
	}
	c.finish(true)
	return c.err
}

func (c *Capture) finish(kill bool) {
	c.released = true
	c.err = c.proc.release(c.stdout, kill)
}
