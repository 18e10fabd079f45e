package audio

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// PlaybackCommand plays raw bytes read from standard input.
	PlaybackCommand = "gst-play-1.0"
	// CaptureCommand records from the default input device.
	CaptureCommand = "gst-launch-1.0"
)

// ErrToolNotFound matches every *ToolNotFoundError.
var ErrToolNotFound = errors.New("audio: tool not found")

// ToolNotFoundError reports an executable missing from the search path.
type ToolNotFoundError struct {
	Purpose string
	Tool    string
	Remedy  string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s requires `%s`, but it was not found on your system. %s", e.Purpose, e.Tool, e.Remedy)
}

// Is makes errors.Is(err, ErrToolNotFound) true.
func (e *ToolNotFoundError) Is(target error) bool {
	return target == ErrToolNotFound
}

// Tool is an external executable with a fixed argument list.
type Tool struct {
	Purpose string
	Name    string
	Args    []string
	Remedy  string
}

// PlaybackTool returns the gst-play invocation reading from standard input.
func PlaybackTool() Tool {
	return Tool{
		Purpose: "Audio streaming",
		Name:    PlaybackCommand,
		Args:    []string{"--no-interactive", "fd://0"},
		Remedy: "On macOS, type `brew install gstreamer` to install it. " +
			"On Ubuntu, type `sudo apt install gstreamer1.0-plugins-base-apps` to install it.",
	}
}

// CaptureTool returns the gst-launch pipeline writing S16LE samples at
// sampleRate to standard output.
func CaptureTool(sampleRate int) Tool {
	return Tool{
		Purpose: "Audio capture",
		Name:    CaptureCommand,
		Args: []string{
			"autoaudiosrc", "!",
			"audioconvert", "!", "audioresample", "!",
			"audio/x-raw,format=S16LE,rate=" + strconv.Itoa(sampleRate), "!",
			"fdsink", "fd=1",
		},
		Remedy: "On macOS, type `brew install gstreamer` to install it. " +
			"On Ubuntu, type `sudo apt install gstreamer1.0-tools` to install it.",
	}
}

// LookPath resolves the tool on the search path.
func (t Tool) LookPath() (string, error) {
	path, err := exec.LookPath(t.Name)
	if err != nil {
		return "", &ToolNotFoundError{Purpose: t.Purpose, Tool: t.Name, Remedy: t.Remedy}
	}
	return path, nil
}
