package workers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mrsingh-rishi/cambai-go/audio"
	"github.com/mrsingh-rishi/cambai-go/service"
)

// SpeakerWorker speaks every line received on TextChannel, one at a time,
// through the player.
type SpeakerWorker struct {
	ctx         context.Context
	cancel      context.CancelFunc
	TextChannel <-chan string
	client      *service.Client
	player      *audio.Player
	voiceID     int
	language    string
	log         *zap.Logger
	done        chan struct{}

	played int
	err    error
}

func NewSpeakerWorker(client *service.Client, player *audio.Player, voiceID int, language string, textChannel <-chan string, logger *zap.Logger) (*SpeakerWorker, error) {
	if client == nil {
		return nil, fmt.Errorf("speech client is required")
	}
	if player == nil {
		return nil, fmt.Errorf("player is required")
	}
	if textChannel == nil {
		return nil, fmt.Errorf("text channel is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SpeakerWorker{
		ctx:         ctx,
		cancel:      cancel,
		TextChannel: textChannel,
		client:      client,
		player:      player,
		voiceID:     voiceID,
		language:    language,
		log:         logger,
		done:        make(chan struct{}),
	}, nil
}

func (w *SpeakerWorker) Start() {
	go func() {
		defer close(w.done)
		for {
			select {
			case <-w.ctx.Done():
				// we've been asked to stop
				return
			case text, ok := <-w.TextChannel:
				if !ok {
					// channel closed
					return
				}
				if text == "" {
					continue
				}
				if err := w.speak(text); err != nil {
					w.log.Error("speak", zap.String("text", text), zap.Error(err))
					if w.err == nil {
						w.err = err
					}
				}
			}
		}
	}()
}

func (w *SpeakerWorker) speak(text string) error {
	stream, err := w.client.TextToSpeechStream(w.ctx, text, w.voiceID, w.language)
	if err != nil {
		return err
	}
	defer stream.Close()

	played, err := w.player.PlayContext(w.ctx, stream)
	w.played += len(played)
	w.log.Debug("spoke", zap.Int("bytes", len(played)))
	return err
}

// Stop signals the worker to exit, interrupting playback.
func (w *SpeakerWorker) Stop() {
	w.cancel()
}

// Wait blocks until the worker has stopped. It returns the total number of
// bytes played and the first error met.
func (w *SpeakerWorker) Wait() (int, error) {
	<-w.done
	return w.played, w.err
}
