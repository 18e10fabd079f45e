package audio

import (
	"bufio"
	"bytes"
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/bridge"
	"github.com/mrsingh-rishi/cambai-go/model"
)

// Player pipes audio into the standard input of a playback tool.
// Every Play call spawns its own child process and waits for it before
// returning.
type Player struct {
	tool Tool
	opts options
}

// NewPlayer returns a Player for gst-play-1.0 unless WithExecutable says
// otherwise.
func NewPlayer(opts ...Option) *Player {
	o := newOptions(opts)
	return &Player{tool: o.tool(PlaybackTool()), opts: o}
}

// Play writes every chunk of src to the playback tool, flushing after each
// one, and returns the concatenation of the chunks written. Nil and empty
// chunks are skipped. Play does not close src.
//
// The returned bytes are valid even when err is non-nil; they hold what was
// forwarded before the failure.
func (p *Player) Play(src model.AudioIterator) (audio []byte, err error) {
	path, err := p.tool.LookPath()
	if err != nil {
		return nil, err
	}

	proc := newProcess(nil, path, p.tool.Args, p.opts)
	stdin, err := proc.cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "playback stdin")
	}
	if err := proc.start(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	defer func() {
		audio = buf.Bytes()
		if rerr := proc.release(stdin, false); rerr != nil {
			if err == nil {
				err = rerr
			} else {
				proc.log.Warn("release playback tool", zap.Error(rerr))
			}
		}
	}()

	proc.enter(StateStreaming)
	w := bufio.NewWriter(stdin)
	for {
		chunk, err := src.Next()
		if errors.Is(err, iterator.Done) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			continue
		}
		if _, err := w.Write(chunk); err != nil {
			return nil, errors.Wrap(err, "write to playback tool")
		}
		if err := w.Flush(); err != nil {
			return nil, errors.Wrap(err, "flush playback tool")
		}
		buf.Write(chunk)
	}
}

// PlayContext is Play for a context-aware producer. The child is bound to
// ctx: when ctx is done the child is killed, the loop stops and ctx.Err() is
// returned. Each write returns only once the pipe has taken the whole chunk,
// so a slow player throttles r instead of growing a buffer.
func (p *Player) PlayContext(ctx context.Context, r bridge.Receiver[[]byte]) (audio []byte, err error) {
	path, err := p.tool.LookPath()
	if err != nil {
		return nil, err
	}

	proc := newProcess(ctx, path, p.tool.Args, p.opts)
	stdin, err := proc.cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "playback stdin")
	}
	if err := proc.start(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	defer func() {
		audio = buf.Bytes()
		if rerr := proc.release(stdin, false); rerr != nil {
			if err == nil {
				err = rerr
			} else {
				proc.log.Warn("release playback tool", zap.Error(rerr))
			}
		}
	}()

	proc.enter(StateStreaming)
	for {
		chunk, err := r.Next(ctx)
		if errors.Is(err, iterator.Done) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			continue
		}
		if _, err := stdin.Write(chunk); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.Wrap(err, "write to playback tool")
		}
		buf.Write(chunk)
	}
}
