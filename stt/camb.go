package stt

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/model"
)

const (
	DefaultURL      = "wss://client.camb.ai/apis/stt-stream"
	DefaultModel    = "camb"
	DefaultLanguage = "en-us"
)

// Request holds the transcription settings sent with the stream.
type Request struct {
	SampleRate          int
	Model               string
	Language            string
	TranslateToLanguage string
	Punctuate           bool
	Diarize             bool
	InterimResults      bool
}

// DefaultRequest returns the settings used when the caller has no
// preference: the camb model, en-us, punctuation and interim results on.
func DefaultRequest(sampleRate int) Request {
	return Request{
		SampleRate:     sampleRate,
		Model:          DefaultModel,
		Language:       DefaultLanguage,
		Punctuate:      true,
		InterimResults: true,
	}
}

func (r Request) query() url.Values {
	q := url.Values{}
	q.Set("sample_rate", strconv.Itoa(r.SampleRate))
	q.Set("encoding", "pcm_s16le")
	q.Set("model", r.Model)
	q.Set("language", r.Language)
	if r.TranslateToLanguage != "" {
		q.Set("translate_to_language", r.TranslateToLanguage)
	}
	q.Set("punctuate", strconv.FormatBool(r.Punctuate))
	q.Set("diarize", strconv.FormatBool(r.Diarize))
	q.Set("interim_results", strconv.FormatBool(r.InterimResults))
	return q
}

// message is one JSON message sent by the server.
type message struct {
	Type string `json:"type"`
	model.Transcription
	Message string `json:"message,omitempty"`
}

// closeStream tells the server no more audio will follow.
var closeStream = []byte(`{"type":"close_stream"}`)

type Client struct {
	apiKey string
	url    string
	dialer *websocket.Dialer
	log    *zap.Logger
}

type Option func(*Client)

func WithURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.url = u
		}
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.log = logger
		}
	}
}

// NewClient creates a streaming speech-to-text client.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("stt: API key is required")
	}
	c := &Client{
		apiKey: apiKey,
		url:    DefaultURL,
		dialer: websocket.DefaultDialer,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Stream opens a transcription session. A goroutine pulls audio from the
// iterator and sends it as binary frames until the iterator is exhausted.
// The connection is bound to ctx: when ctx is done the connection is closed
// and a pending Next returns ctx.Err(). The caller keeps ownership of audio
// and may close it once Close has returned.
func (c *Client) Stream(ctx context.Context, audio model.AudioIterator, req Request) (*Stream, error) {
	if req.SampleRate <= 0 {
		return nil, errors.New("stt: sample rate is required")
	}
	if req.Model == "" {
		req.Model = DefaultModel
	}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}

	u, err := url.Parse(c.url)
	if err != nil {
		return nil, errors.Wrap(err, "stt: parse url")
	}
	u.RawQuery = req.query().Encode()

	sessionID := uuid.NewString()
	header := http.Header{}
	header.Set("x-api-key", c.apiKey)
	header.Set("X-Request-ID", sessionID)
	conn, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, &model.APIError{Op: "stt", StatusCode: resp.StatusCode, Message: resp.Status}
		}
		return nil, errors.Wrap(err, "stt: dial")
	}

	s := &Stream{
		ctx:      ctx,
		conn:     conn,
		log:      c.log.With(zap.String("session", sessionID)),
		sendDone: make(chan struct{}),
	}
	s.stop = context.AfterFunc(ctx, func() { conn.Close() })
	s.log.Debug("stt stream opened", zap.Int("sample_rate", req.SampleRate), zap.String("model", req.Model))
	go s.send(audio)
	return s, nil
}

// Stream is a live transcription session.
type Stream struct {
	ctx      context.Context
	conn     *websocket.Conn
	log      *zap.Logger
	stop     func() bool
	sendDone chan struct{}

	writeMu sync.Mutex

	mu      sync.Mutex
	sendErr error
	closed  bool
}

var _ model.TranscriptIterator = (*Stream)(nil)

func (s *Stream) send(audio model.AudioIterator) {
	defer close(s.sendDone)
	var sent int
	for {
		chunk, err := audio.Next()
		if errors.Is(err, iterator.Done) {
			s.log.Debug("audio exhausted", zap.Int("bytes", sent))
			if err := s.write(websocket.TextMessage, closeStream); err != nil {
				s.log.Debug("send close_stream", zap.Error(err))
			}
			return
		}
		if err != nil {
			s.mu.Lock()
			s.sendErr = err
			s.mu.Unlock()
			s.log.Debug("audio source failed", zap.Error(err))
			s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "audio source failed"))
			return
		}
		if len(chunk) == 0 {
			continue
		}
		if err := s.write(websocket.BinaryMessage, chunk); err != nil {
			s.log.Debug("send audio", zap.Error(err))
			return
		}
		sent += len(chunk)
	}
}

func (s *Stream) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(messageType, data)
}

func (s *Stream) audioErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sendErr
}

// Next returns the next transcription result. It returns iterator.Done when
// the server closes the session normally, the audio iterator's own error if
// it failed, or a *model.APIError if the server reported one.
func (s *Stream) Next() (model.Transcription, error) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if cerr := s.ctx.Err(); cerr != nil {
				return model.Transcription{}, cerr
			}
			if aerr := s.audioErr(); aerr != nil {
				return model.Transcription{}, aerr
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return model.Transcription{}, iterator.Done
			}
			return model.Transcription{}, errors.Wrap(err, "stt: read")
		}

		var m message
		if err := json.Unmarshal(data, &m); err != nil {
			s.log.Warn("unparseable stt message", zap.Error(err))
			continue
		}
		switch m.Type {
		case "error":
			return model.Transcription{}, &model.APIError{Op: "stt", Message: m.Message}
		case "transcript", "":
			return m.Transcription, nil
		default:
			s.log.Debug("ignored stt message", zap.String("type", m.Type))
		}
	}
}

// Close ends the session and waits for the sending goroutine, so audio is
// no longer in use when Close returns. A send blocked inside audio.Next is
// waited for until that call returns.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := s.conn.Close()
	<-s.sendDone
	if errors.Is(err, net.ErrClosed) {
		// already closed by the context
		err = nil
	}
	return err
}
