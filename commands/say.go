package commands

import (
	"bufio"
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrsingh-rishi/cambai-go/service"
	"github.com/mrsingh-rishi/cambai-go/workers"
)

var (
	sayVoiceID  int
	sayLanguage string
	sayOutput   string
)

var sayCmd = &cobra.Command{
	Use:   "say [text]",
	Short: "Synthesize text and play it",
	Long: `Synthesize text with Camb AI and play it through gst-play-1.0.

Without arguments every line read from stdin is spoken in turn.
With --output the audio is written to a file ("-" for stdout) instead.

Example:
  cambai say --voice 20303 "Hello from Camb AI"
  cambai say -o hello.wav "Hello"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		voiceID := cfg.VoiceID
		if cmd.Flags().Changed("voice") {
			voiceID = sayVoiceID
		}
		language := cfg.Language
		if sayLanguage != "" {
			language = sayLanguage
		}

		text := joinArgs(args)
		if sayOutput != "" {
			return runSayToFile(cmd.Context(), client, text, voiceID, language)
		}

		lines := make(chan string)
		speaker, err := workers.NewSpeakerWorker(client, newPlayer(), voiceID, language, lines, logger.Named("speaker"))
		if err != nil {
			return err
		}
		speaker.Start()
		go func() {
			defer close(lines)
			if text != "" {
				lines <- text
				return
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				select {
				case lines <- scanner.Text():
				case <-cmd.Context().Done():
					return
				}
			}
		}()
		go func() {
			<-cmd.Context().Done()
			speaker.Stop()
		}()

		played, err := speaker.Wait()
		logger.Info("playback finished", zap.Int("bytes", played))
		if err != nil && cmd.Context().Err() == nil {
			return err
		}
		return nil
	},
}

func runSayToFile(ctx context.Context, client *service.Client, text string, voiceID int, language string) error {
	stream, err := client.TextToSpeechStream(ctx, text, voiceID, language)
	if err != nil {
		return err
	}
	defer stream.Close()

	out, err := openOutput(sayOutput)
	if err != nil {
		return err
	}
	defer out.Close()

	for chunk, err := range stream.All(ctx) {
		if err != nil {
			return err
		}
		if _, err := out.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	sayCmd.Flags().IntVar(&sayVoiceID, "voice", 0, "voice id (default from CAMB_VOICE_ID)")
	sayCmd.Flags().StringVarP(&sayLanguage, "language", "l", "", "language, e.g. en-us (default from CAMB_LANGUAGE)")
	sayCmd.Flags().StringVarP(&sayOutput, "output", "o", "", "write audio to a file instead of playing it")
	rootCmd.AddCommand(sayCmd)
}
