package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var playChunkSize int

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play raw audio read from stdin",
	Long: `Pipe stdin into gst-play-1.0 chunk by chunk.

Example:
  cambai say -o - "Hello" | cambai play`,
	RunE: func(cmd *cobra.Command, args []string) error {
		src := newReaderSource(cmd.InOrStdin(), playChunkSize)
		played, err := newPlayer().Play(src)
		logger.Info("playback finished", zap.Int("bytes", len(played)))
		return err
	},
}

func init() {
	playCmd.Flags().IntVar(&playChunkSize, "chunk-size", 4096, "bytes written per chunk")
	rootCmd.AddCommand(playCmd)
}
