// Command cambai streams Camb AI speech between the API, the speakers and
// the microphone.
package main

import (
	"fmt"
	"os"

	"github.com/mrsingh-rishi/cambai-go/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
