// Package commands implements the cambai command line.
//
// Usage:
//
//	cambai [flags] <command> [args]
//
// Commands:
//
//	say     - synthesize text and play it
//	listen  - transcribe the microphone or a raw PCM file
//	play    - play raw audio read from stdin
//	capture - write raw microphone audio to stdout or a file
//	serve   - HTTP server with streaming /tts and a /stt websocket
//
// Configuration is read from .env, an optional YAML file (--config) and the
// CAMB_* environment variables.
package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrsingh-rishi/cambai-go/audio"
	"github.com/mrsingh-rishi/cambai-go/config"
	"github.com/mrsingh-rishi/cambai-go/service"
	"github.com/mrsingh-rishi/cambai-go/stt"
	"github.com/mrsingh-rishi/cambai-go/tts"
)

var (
	configFile string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cambai",
	Short: "Camb AI speech streaming from the command line",
	Long: `Stream Camb AI text-to-speech to your speakers and your microphone to
Camb AI speech-to-text.

Playback uses gst-play-1.0 and capture uses gst-launch-1.0 from GStreamer.
Set CAMB_API_KEY, or api_key in the file given with --config.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		logger, err = newLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging at debug level")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newClient builds the async speech client from the configuration.
func newClient(opts ...service.Option) (*service.Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	ttsClient, err := tts.NewClient(cfg.APIKey,
		tts.WithBaseURL(cfg.BaseURL),
		tts.WithLogger(logger.Named("tts")))
	if err != nil {
		return nil, err
	}
	sttClient, err := stt.NewClient(cfg.APIKey,
		stt.WithURL(cfg.WSURL),
		stt.WithLogger(logger.Named("stt")))
	if err != nil {
		return nil, err
	}
	opts = append([]service.Option{service.WithLogger(logger.Named("service"))}, opts...)
	return service.New(service.NewCambVendor(ttsClient, sttClient), opts...), nil
}

func newPlayer() *audio.Player {
	return audio.NewPlayer(
		audio.WithExecutable(cfg.Player),
		audio.WithLogger(logger.Named("player")))
}

func newRecorder() *audio.Recorder {
	return audio.NewRecorder(cfg.SampleRate,
		audio.WithExecutable(cfg.Capture),
		audio.WithLogger(logger.Named("recorder")))
}

// sttRequest returns the transcription settings from the configuration.
func sttRequest(sampleRate int) stt.Request {
	req := stt.DefaultRequest(sampleRate)
	if cfg.Model != "" {
		req.Model = cfg.Model
	}
	if cfg.Language != "" {
		req.Language = cfg.Language
	}
	return req
}
