package workers

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/bridge"
	"github.com/mrsingh-rishi/cambai-go/model"
)

// TranscriptionWorker logs interim results and forwards the text of final
// ones. It closes the output channel when it stops.
type TranscriptionWorker struct {
	ctx                        context.Context
	cancel                     context.CancelFunc
	TranscriptionInput         bridge.Receiver[model.Transcription]
	TranscriptionOutputChannel chan<- string
	log                        *zap.Logger
	done                       chan struct{}
	err                        error
}

func NewTranscriptionWorker(input bridge.Receiver[model.Transcription], transcriptionOutputChannel chan<- string, logger *zap.Logger) (*TranscriptionWorker, error) {
	// Params Validation
	if input == nil {
		return nil, fmt.Errorf("transcription input is required")
	}
	if transcriptionOutputChannel == nil {
		return nil, fmt.Errorf("transcription output channel is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TranscriptionWorker{
		ctx:                        ctx,
		cancel:                     cancel,
		TranscriptionInput:         input,
		TranscriptionOutputChannel: transcriptionOutputChannel,
		log:                        logger,
		done:                       make(chan struct{}),
	}, nil
}

func (tw *TranscriptionWorker) Start() {
	go func() {
		defer close(tw.done)
		defer close(tw.TranscriptionOutputChannel)
		for {
			transcription, err := tw.TranscriptionInput.Next(tw.ctx)
			if err != nil {
				if !errors.Is(err, iterator.Done) && tw.ctx.Err() == nil {
					tw.err = err
				}
				return
			}
			if !transcription.Final {
				tw.log.Debug("partial transcription",
					zap.String("text", transcription.Text),
					zap.Float64("confidence", transcription.Confidence))
				continue
			}
			text := transcription.Text
			if transcription.Translation != "" {
				text = transcription.Translation
			}
			tw.log.Info("final transcription",
				zap.String("text", transcription.Text),
				zap.String("translation", transcription.Translation),
				zap.String("speaker", transcription.Speaker),
				zap.Float64("confidence", transcription.Confidence))
			select {
			case tw.TranscriptionOutputChannel <- text:
			case <-tw.ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the worker to exit.
func (tw *TranscriptionWorker) Stop() {
	tw.cancel()
}

// Wait blocks until the worker has stopped and returns the input's error,
// if it failed.
func (tw *TranscriptionWorker) Wait() error {
	<-tw.done
	return tw.err
}
