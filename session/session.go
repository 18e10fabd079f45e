// Package session runs one websocket transcription session: audio arrives
// from the client, transcripts go back on the same connection.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mrsingh-rishi/cambai-go/bridge"
	"github.com/mrsingh-rishi/cambai-go/model"
	"github.com/mrsingh-rishi/cambai-go/service"
	"github.com/mrsingh-rishi/cambai-go/stt"
)

// Conn is the part of a websocket connection a Session uses. Both the
// gorilla and the fiber connections satisfy it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// event is a text message sent by the client. Raw audio may also be sent
// as binary messages.
type event struct {
	Event string `json:"event"` // "start", "media", "stop"
	Media struct {
		Payload string `json:"payload"` // base64 audio
	} `json:"media"`
	Start struct {
		SampleRate          int    `json:"sample_rate"`
		Language            string `json:"language"`
		TranslateToLanguage string `json:"translate_to_language"`
	} `json:"start"`
}

type Session struct {
	ID     string
	ws     Conn
	client *service.Client
	req    stt.Request
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	AudioChannel chan []byte
	transcripts  *bridge.Stream[model.Transcription]
	Output       *TranscriptOutput

	closeAudio sync.Once
	cleanup    sync.Once
}

func New(ctx context.Context, ws Conn, client *service.Client, req stt.Request, logger *zap.Logger) (*Session, error) {
	if ws == nil {
		return nil, fmt.Errorf("websocket connection is required")
	}
	if client == nil {
		return nil, fmt.Errorf("speech client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	return &Session{
		ID:           id,
		ws:           ws,
		client:       client,
		req:          req,
		log:          logger.With(zap.String("session", id)),
		ctx:          ctx,
		cancel:       cancel,
		AudioChannel: make(chan []byte),
	}, nil
}

// Run reads client messages until the client sends "stop", closes the
// connection or the context ends. After "stop" it waits for the remaining
// transcripts to be delivered.
func (s *Session) Run() error {
	defer s.CleanupResources()
	s.log.Info("session connected")

	for {
		messageType, msg, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Info("websocket closed", zap.Error(err))
				return nil
			}
			s.log.Warn("websocket read", zap.Error(err))
			return err
		}

		if messageType == websocket.BinaryMessage {
			if err := s.sendAudio(msg); err != nil {
				return err
			}
			continue
		}

		var ev event
		if err := json.Unmarshal(msg, &ev); err != nil {
			s.log.Warn("json unmarshal", zap.Error(err))
			continue
		}

		switch ev.Event {
		case "start":
			if s.Output != nil {
				s.log.Warn("start after audio, ignored")
				continue
			}
			if ev.Start.SampleRate > 0 {
				s.req.SampleRate = ev.Start.SampleRate
			}
			if ev.Start.Language != "" {
				s.req.Language = ev.Start.Language
			}
			if ev.Start.TranslateToLanguage != "" {
				s.req.TranslateToLanguage = ev.Start.TranslateToLanguage
			}
			if err := s.open(); err != nil {
				return err
			}

		case "media":
			chunk, err := base64.StdEncoding.DecodeString(ev.Media.Payload)
			if err != nil {
				s.log.Warn("base64 decode", zap.Error(err))
				continue
			}
			if err := s.sendAudio(chunk); err != nil {
				return err
			}

		case "stop":
			s.log.Info("stream stopped")
			return s.finish()

		default:
			s.log.Warn("unknown event", zap.String("event", ev.Event))
		}
	}
}

// open starts the transcription and the output worker. It runs at most once.
func (s *Session) open() error {
	if s.Output != nil {
		return nil
	}
	stream, err := s.client.SpeechToTextStream(s.ctx, bridge.FromChan(s.AudioChannel), s.req)
	if err != nil {
		s.log.Error("open transcription", zap.Error(err))
		s.ws.WriteJSON(errorEvent(s.ID, err))
		return err
	}
	s.transcripts = stream
	s.Output, err = NewTranscriptOutput(s.ID, s.ws, stream, s.log)
	if err != nil {
		stream.Close()
		return err
	}
	s.Output.Start()
	return nil
}

func (s *Session) sendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	if err := s.open(); err != nil {
		return err
	}
	select {
	case s.AudioChannel <- chunk:
		return nil
	case <-s.Output.Done():
		// the transcription ended early; its error is reported to the client
		return s.Output.Err()
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// finish ends the audio and waits for the output worker to drain the
// transcripts.
func (s *Session) finish() error {
	s.closeAudio.Do(func() { close(s.AudioChannel) })
	if s.Output == nil {
		return nil
	}
	select {
	case <-s.Output.Done():
		return s.Output.Err()
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// CleanupResources releases everything the session owns. It is safe to
// call more than once.
func (s *Session) CleanupResources() {
	s.cleanup.Do(func() {
		s.cancel()
		// closing the connection unblocks a pending write in the output
		s.ws.Close()
		if s.Output != nil {
			s.Output.Stop()
			<-s.Output.Done()
		}
		if s.transcripts != nil {
			if err := s.transcripts.Close(); err != nil {
				s.log.Warn("close transcription", zap.Error(err))
			}
		}
		s.log.Info("session closed")
	})
}
