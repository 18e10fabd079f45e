package session

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/bridge"
	"github.com/mrsingh-rishi/cambai-go/model"
)

// EndOfStream names the mark sent after the last transcript.
const EndOfStream = "end of stream"

// TranscriptOutput writes every transcript of a session to the websocket,
// then a mark event, or an error event if the transcription failed.
type TranscriptOutput struct {
	ctx             context.Context
	cancel          context.CancelFunc
	TranscriptInput bridge.Receiver[model.Transcription]
	sessionID       string
	ws              Conn
	log             *zap.Logger
	done            chan struct{}
	err             error
}

func NewTranscriptOutput(
	sessionID string,
	ws Conn,
	transcriptInput bridge.Receiver[model.Transcription],
	logger *zap.Logger,
) (*TranscriptOutput, error) {
	if transcriptInput == nil {
		return nil, fmt.Errorf("transcript input is required")
	}
	if ws == nil {
		return nil, fmt.Errorf("websocket connection is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TranscriptOutput{
		ctx:             ctx,
		cancel:          cancel,
		TranscriptInput: transcriptInput,
		sessionID:       sessionID,
		ws:              ws,
		log:             logger,
		done:            make(chan struct{}),
	}, nil
}

func (o *TranscriptOutput) Start() {
	o.sendEvent(map[string]interface{}{
		"event":   "connected",
		"session": o.sessionID,
	})
	go func() {
		defer close(o.done)
		for {
			t, err := o.TranscriptInput.Next(o.ctx)
			if errors.Is(err, iterator.Done) {
				o.sendMarkEvent()
				return
			}
			if err != nil {
				// the session ending is not a transcription failure
				if o.ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				o.err = err
				o.sendEvent(errorEvent(o.sessionID, err))
				return
			}
			o.sendTranscriptEvent(t)
		}
	}()
}

func (o *TranscriptOutput) sendTranscriptEvent(t model.Transcription) {
	o.sendEvent(map[string]interface{}{
		"event":      "transcript",
		"session":    o.sessionID,
		"transcript": t,
	})
}

func (o *TranscriptOutput) sendMarkEvent() {
	o.sendEvent(map[string]interface{}{
		"event":   "mark",
		"session": o.sessionID,
		"mark": map[string]string{
			"name": EndOfStream,
		},
	})
}

func (o *TranscriptOutput) sendEvent(v interface{}) {
	if err := o.ws.WriteJSON(v); err != nil {
		o.log.Warn("websocket write", zap.Error(err))
	}
}

func errorEvent(sessionID string, err error) map[string]interface{} {
	return map[string]interface{}{
		"event":   "error",
		"session": sessionID,
		"error":   err.Error(),
	}
}

// Stop interrupts the worker. Unlike the session it does not close the
// connection.
func (o *TranscriptOutput) Stop() {
	o.cancel()
}

// Done is closed once the worker has stopped.
func (o *TranscriptOutput) Done() <-chan struct{} {
	return o.done
}

// Err returns the transcription error, if any. It is valid after Done is
// closed.
func (o *TranscriptOutput) Err() error {
	return o.err
}
