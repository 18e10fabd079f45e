package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mrsingh-rishi/cambai-go/bridge"
	"github.com/mrsingh-rishi/cambai-go/model"
	"github.com/mrsingh-rishi/cambai-go/stt"
	"github.com/mrsingh-rishi/cambai-go/tts"
)

// InputMode selects how SpeechToTextStream hands caller audio to the vendor.
type InputMode int

const (
	// InputRelay streams audio through a bounded channel as it arrives.
	InputRelay InputMode = iota
	// InputMaterialize collects all audio before the vendor sees any of it.
	InputMaterialize
)

// DefaultRelaySize is the number of chunks buffered between the caller's
// audio and the vendor in InputRelay mode.
const DefaultRelaySize = 32

// Client exposes a Vendor's blocking streams as bridge streams.
type Client struct {
	vendor    Vendor
	log       *zap.Logger
	inputMode InputMode
	relaySize int
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

func WithInputMode(mode InputMode) Option {
	return func(c *Client) {
		c.inputMode = mode
	}
}

func WithRelaySize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.relaySize = n
		}
	}
}

func New(vendor Vendor, opts ...Option) *Client {
	c := &Client{
		vendor:    vendor,
		log:       zap.NewNop(),
		inputMode: InputRelay,
		relaySize: DefaultRelaySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TextToSpeechStream synthesizes text and streams the audio chunks. Errors
// from the vendor are returned as they are.
func (c *Client) TextToSpeechStream(ctx context.Context, text string, voiceID int, language string) (*bridge.Stream[[]byte], error) {
	if language == "" {
		language = tts.DefaultLanguage
	}
	req := tts.Request{Text: text, VoiceID: voiceID, Language: language}
	return bridge.Open(ctx, func(ctx context.Context) (bridge.Source[[]byte], error) {
		it, err := c.vendor.TextToSpeechStream(ctx, req)
		if err != nil {
			return nil, err
		}
		return it, nil
	}, bridge.WithLogger(c.log), bridge.WithName("tts"))
}

// SpeechToTextStream transcribes audio and streams the results. In
// InputMaterialize mode the call does not return until audio is exhausted.
func (c *Client) SpeechToTextStream(ctx context.Context, audio bridge.Receiver[[]byte], req stt.Request) (*bridge.Stream[model.Transcription], error) {
	return bridge.Open(ctx, func(ctx context.Context) (bridge.Source[model.Transcription], error) {
		actx, stopAudio := context.WithCancel(ctx)
		var in bridge.Source[[]byte]
		switch c.inputMode {
		case InputMaterialize:
			src, err := bridge.Materialize(actx, audio)
			if err != nil {
				stopAudio()
				return nil, err
			}
			in = src
		default:
			in = bridge.Relay(actx, audio, c.relaySize)
		}

		it, err := c.vendor.SpeechToTextStream(ctx, in, req)
		if err != nil {
			stopAudio()
			in.Close()
			return nil, err
		}
		return &transcripts{TranscriptIterator: it, audio: in, stopAudio: stopAudio}, nil
	}, bridge.WithLogger(c.log), bridge.WithName("stt"))
}

// transcripts closes the audio feeding a transcription together with it.
// The vendor is closed before the audio so nothing reads the audio while it
// is being closed.
type transcripts struct {
	model.TranscriptIterator
	audio     bridge.Source[[]byte]
	stopAudio context.CancelFunc
}

func (t *transcripts) Close() error {
	// unblocks a vendor sender waiting on the relay
	t.stopAudio()
	err := t.TranscriptIterator.Close()
	if aerr := t.audio.Close(); err == nil {
		err = aerr
	}
	return err
}
