package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrsingh-rishi/cambai-go/audio"
	"github.com/mrsingh-rishi/cambai-go/bridge"
	"github.com/mrsingh-rishi/cambai-go/service"
	"github.com/mrsingh-rishi/cambai-go/workers"
)

var (
	listenLanguage    string
	listenTranslate   string
	listenInput       string
	listenDuration    time.Duration
	listenMaterialize bool
	listenDiarize     bool
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Transcribe the microphone or a raw PCM file",
	Long: `Stream audio to Camb AI speech-to-text and print every final transcript.

Audio comes from the microphone through gst-launch-1.0, or from a raw
16-bit little-endian mono PCM file given with --input.

Example:
  cambai listen --duration 30s
  cambai listen --input speech.raw --materialize --translate fr-fr`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listenMaterialize && listenInput == "" {
			return fmt.Errorf("--materialize needs --input; live capture never ends on its own")
		}
		mode := service.InputRelay
		if listenMaterialize {
			mode = service.InputMaterialize
		}
		client, err := newClient(service.WithInputMode(mode))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if listenDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, listenDuration)
			defer cancel()
		}

		source, sampleRate, err := openListenSource(ctx)
		if err != nil {
			return err
		}
		defer source.Close()

		req := sttRequest(sampleRate)
		if listenLanguage != "" {
			req.Language = listenLanguage
		}
		req.TranslateToLanguage = listenTranslate
		req.Diarize = listenDiarize

		// The transcription outlives the capture deadline so the results
		// of the last frames still arrive.
		transcripts, err := client.SpeechToTextStream(cmd.Context(), endWith[[]byte](ctx, source), req)
		if err != nil {
			return err
		}
		defer transcripts.Close()

		lines := make(chan string)
		worker, err := workers.NewTranscriptionWorker(transcripts, lines, logger.Named("transcription"))
		if err != nil {
			return err
		}
		worker.Start()
		for line := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		if err := worker.Wait(); err != nil && cmd.Context().Err() == nil {
			return err
		}
		return nil
	},
}

// openListenSource returns the audio to transcribe and its sample rate.
func openListenSource(ctx context.Context) (*bridge.Stream[[]byte], int, error) {
	if listenInput != "" {
		f, err := os.Open(listenInput)
		if err != nil {
			return nil, 0, err
		}
		return bridge.New(ctx, newReaderSource(f, audio.FrameSize),
			bridge.WithLogger(logger), bridge.WithName("file")), cfg.SampleRate, nil
	}
	recorder := newRecorder()
	stream, err := recorder.StartContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	return stream, recorder.SampleRate(), nil
}

func init() {
	listenCmd.Flags().StringVarP(&listenLanguage, "language", "l", "", "spoken language (default from CAMB_LANGUAGE)")
	listenCmd.Flags().StringVar(&listenTranslate, "translate", "", "also translate into this language")
	listenCmd.Flags().StringVarP(&listenInput, "input", "i", "", "raw PCM file to transcribe instead of the microphone")
	listenCmd.Flags().DurationVarP(&listenDuration, "duration", "d", 0, "stop capturing after this long")
	listenCmd.Flags().BoolVar(&listenMaterialize, "materialize", false, "read all audio before sending any of it")
	listenCmd.Flags().BoolVar(&listenDiarize, "diarize", false, "label speakers")
	rootCmd.AddCommand(listenCmd)
}
