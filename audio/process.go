package audio

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// State is the lifecycle stage of a child process.
type State int

const (
	StateNotStarted State = iota
	StateSpawned
	StateStreaming
	StateDraining
	StateExited
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateSpawned:
		return "spawned"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateExited:
		return "exited"
	}
	return "unknown"
}

// StateFunc observes state changes. pid is zero before the process is
// spawned.
type StateFunc func(pid int, s State)

// process owns one child and the pipe used to talk to it. Draining and
// Exited are always passed through in that order, whatever ended the
// transfer.
type process struct {
	cmd   *exec.Cmd
	ctx   context.Context
	name  string
	state State
	hook  StateFunc
	log   *zap.Logger
}

// newProcess prepares the command. When ctx is non-nil the child is killed
// as soon as ctx is done.
func newProcess(ctx context.Context, path string, args []string, o options) *process {
	var cmd *exec.Cmd
	if ctx != nil {
		cmd = exec.CommandContext(ctx, path, args...)
	} else {
		cmd = exec.Command(path, args...)
	}
	p := &process{
		cmd:  cmd,
		ctx:  ctx,
		name: path,
		hook: o.hook,
		log:  o.logger.With(zap.String("tool", path)),
	}
	p.enter(StateNotStarted)
	return p
}

func (p *process) pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *process) enter(s State) {
	p.state = s
	p.log.Debug("child process", zap.Int("pid", p.pid()), zap.Stringer("state", s))
	if p.hook != nil {
		p.hook(p.pid(), s)
	}
}

func (p *process) start() error {
	if err := p.cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", p.name)
	}
	p.enter(StateSpawned)
	return nil
}

func (p *process) cancelled() bool {
	return p.ctx != nil && p.ctx.Err() != nil
}

// release closes pipe, optionally kills the child, and waits for it.
// A non-zero exit is only reported when the child was left to finish on its
// own.
func (p *process) release(pipe io.Closer, kill bool) error {
	p.enter(StateDraining)

	var closeErr error
	if pipe != nil {
		if err := pipe.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			closeErr = errors.Wrapf(err, "close %s pipe", p.name)
		}
	}
	if kill {
		// The child may already be gone.
		_ = p.cmd.Process.Kill()
	}
	waitErr := p.cmd.Wait()
	p.enter(StateExited)

	if kill || p.cancelled() {
		waitErr = nil
	}
	if waitErr != nil {
		p.log.Debug("child process exited", zap.Int("pid", p.pid()), zap.Error(waitErr))
		waitErr = errors.Wrapf(waitErr, "%s", p.name)
	}
	if closeErr != nil {
		return closeErr
	}
	return waitErr
}
