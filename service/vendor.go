package service

import (
	"context"

	"github.com/mrsingh-rishi/cambai-go/model"
	"github.com/mrsingh-rishi/cambai-go/stt"
	"github.com/mrsingh-rishi/cambai-go/tts"
)

//go:generate mockgen -source=vendor.go -destination=mock_vendor_test.go -package=service

// Vendor is the blocking speech API the Client adapts. It yields items on
// success and returns an error on failure; nothing else is assumed about it.
type Vendor interface {
	TextToSpeechStream(ctx context.Context, req tts.Request) (model.AudioIterator, error)
	SpeechToTextStream(ctx context.Context, audio model.AudioIterator, req stt.Request) (model.TranscriptIterator, error)
}

type cambVendor struct {
	tts *tts.Client
	stt *stt.Client
}

// NewCambVendor combines the Camb text-to-speech and speech-to-text clients.
func NewCambVendor(ttsClient *tts.Client, sttClient *stt.Client) Vendor {
	return &cambVendor{tts: ttsClient, stt: sttClient}
}

func (v *cambVendor) TextToSpeechStream(ctx context.Context, req tts.Request) (model.AudioIterator, error) {
	s, err := v.tts.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (v *cambVendor) SpeechToTextStream(ctx context.Context, audio model.AudioIterator, req stt.Request) (model.TranscriptIterator, error) {
	s, err := v.stt.Stream(ctx, audio, req)
	if err != nil {
		return nil, err
	}
	return s, nil
}
