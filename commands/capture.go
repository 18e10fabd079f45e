package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	captureOutput   string
	captureDuration time.Duration
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record raw microphone audio",
	Long: `Record 16-bit little-endian mono PCM from the default microphone
through gst-launch-1.0 until interrupted or --duration has passed.

Example:
  cambai capture -d 10s -o speech.raw`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if captureDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, captureDuration)
			defer cancel()
		}

		out, err := openOutput(captureOutput)
		if err != nil {
			return err
		}
		defer out.Close()

		recorder := newRecorder()
		stream, err := recorder.StartContext(ctx)
		if err != nil {
			return err
		}
		defer stream.Close()

		total := 0
		for frame, err := range stream.All(ctx) {
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				return err
			}
			if _, err := out.Write(frame); err != nil {
				return err
			}
			total += len(frame)
		}
		logger.Info("capture finished",
			zap.Int("bytes", total),
			zap.Int("sample_rate", recorder.SampleRate()))
		return nil
	},
}

func init() {
	captureCmd.Flags().StringVarP(&captureOutput, "output", "o", "-", "output file, - for stdout")
	captureCmd.Flags().DurationVarP(&captureDuration, "duration", "d", 0, "stop after this long")
	rootCmd.AddCommand(captureCmd)
}
