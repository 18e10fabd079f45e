package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/mrsingh-rishi/cambai-go/model"
)

const (
	DefaultBaseURL  = "https://client.camb.ai/apis"
	DefaultLanguage = "en-us"

	// DefaultChunkSize bounds the size of each chunk returned by Stream.Next.
	DefaultChunkSize = 4096
)

// Request describes one synthesis.
type Request struct {
	Text         string `json:"text"`
	VoiceID      int    `json:"voice_id"`
	Language     string `json:"language"`
	OutputFormat string `json:"output_format,omitempty"`
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	chunkSize  int
	log        *zap.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
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

// NewClient creates a streaming text-to-speech client.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("tts: API key is required")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
		chunkSize:  DefaultChunkSize,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Stream starts a synthesis and returns the audio as it arrives. The HTTP
// request is bound to ctx.
func (c *Client) Stream(ctx context.Context, req Request) (*Stream, error) {
	if req.Text == "" {
		return nil, errors.New("tts: text is required")
	}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "tts: marshal request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts-stream", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "tts: build request")
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "tts: request")
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &model.APIError{Op: "tts", StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}

	c.log.Debug("tts stream opened",
		zap.String("request_id", requestID),
		zap.Int("voice_id", req.VoiceID),
		zap.String("language", req.Language))
	return &Stream{body: resp.Body, buf: make([]byte, c.chunkSize)}, nil
}

// Stream is the audio body of a synthesis.
type Stream struct {
	body io.ReadCloser
	buf  []byte
	err  error
}

var _ model.AudioIterator = (*Stream)(nil)

// Next returns the next chunk of audio, or iterator.Done at the end of the
// response.
func (s *Stream) Next() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	for {
		n, err := s.body.Read(s.buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.err = iterator.Done
			} else {
				s.err = errors.Wrap(err, "tts: read audio")
			}
		}
		if n > 0 {
			return bytes.Clone(s.buf[:n]), nil
		}
		if s.err != nil {
			return nil, s.err
		}
	}
}

// Close releases the response body.
func (s *Stream) Close() error {
	return s.body.Close()
}
