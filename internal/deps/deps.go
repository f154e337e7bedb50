// Package deps reports whether the external binaries mediaflow drives are
// installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"mediaflow/internal/config"
)

// Requirement defines an external dependency mediaflow relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries used by the handler families.
func Requirements(cfg *config.Config) []Requirement {
	tools := config.Default().Tools
	if cfg != nil {
		tools = cfg.Tools
	}
	return []Requirement{
		{Name: "FFmpeg", Command: tools.FFmpeg, Description: "Renders video clips and retimes speech (moviepy, tts)"},
		{Name: "FFprobe", Command: tools.FFprobe, Description: "Inspects video clips (moviepy)"},
		{Name: "uvx", Command: tools.UVX, Description: "Runs WhisperX for transcripts and subtitles", Optional: true},
		{Name: "Coqui TTS", Command: tools.TTS, Description: "Synthesizes speech (tts)", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Command = resolved
		results = append(results, status)
	}
	return results
}

// MissingRequired returns the names of unavailable, non-optional binaries.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
