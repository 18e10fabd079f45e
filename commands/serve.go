package commands

import (
	"bufio"
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrsingh-rishi/cambai-go/model"
	"github.com/mrsingh-rishi/cambai-go/service"
	"github.com/mrsingh-rishi/cambai-go/session"
	"github.com/mrsingh-rishi/cambai-go/stt"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve streaming speech over HTTP",
	Long: `Start an HTTP server exposing the speech client.

Routes:
  POST /tts      JSON {"text", "voice_id", "language"}; streams the audio
  GET  /stt      websocket; send audio, receive JSON transcripts
  GET  /healthz  liveness

Example:
  cambai serve --addr :3000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		addr := cfg.HTTPAddr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx := cmd.Context()
		app := newApp(ctx, client, sttRequest(cfg.SampleRate), cfg.VoiceID, logger.Named("http"))
		go func() {
			<-ctx.Done()
			if err := app.Shutdown(); err != nil {
				logger.Warn("shutdown", zap.Error(err))
			}
		}()

		logger.Info("listening", zap.String("addr", addr))
		return app.Listen(addr)
	},
}

type ttsRequest struct {
	Text     string `json:"text"`
	VoiceID  int    `json:"voice_id"`
	Language string `json:"language"`
}

// newApp wires the routes. Streams opened by a request live on ctx rather
// than the request, since fiber reuses its request contexts.
func newApp(ctx context.Context, client *service.Client, req stt.Request, voiceID int, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// POST /tts streams the synthesized audio as it arrives
	app.Post("/tts", func(c *fiber.Ctx) error {
		var body ttsRequest
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
		}
		if body.Text == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "`text` field is required"})
		}
		if body.VoiceID == 0 {
			body.VoiceID = voiceID
		}

		stream, err := client.TextToSpeechStream(ctx, body.Text, body.VoiceID, body.Language)
		if err != nil {
			log.Error("tts stream", zap.Error(err))
			status := fiber.StatusBadGateway
			var apiErr *model.APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
				status = apiErr.StatusCode
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}

		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer stream.Close()
			n := 0
			for chunk, err := range stream.All(ctx) {
				if err != nil {
					log.Error("tts stream", zap.Int("bytes", n), zap.Error(err))
					return
				}
				if _, err := w.Write(chunk); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					// client went away
					return
				}
				n += len(chunk)
			}
			log.Debug("tts streamed", zap.Int("bytes", n))
		})
		return nil
	})

	// Middleware to require WebSocket upgrade on /stt
	app.Use("/stt", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/stt", websocket.New(func(ws *websocket.Conn) {
		r := req
		if lang := ws.Query("language"); lang != "" {
			r.Language = lang
		}
		s, err := session.New(ctx, ws, client, r, log)
		if err != nil {
			log.Error("new session", zap.Error(err))
			ws.Close()
			return
		}
		if err := s.Run(); err != nil {
			log.Warn("session ended", zap.String("session", s.ID), zap.Error(err))
		}
	}))

	return app
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
