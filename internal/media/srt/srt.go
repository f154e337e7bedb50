package srt

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"mediaflow/internal/fileutil"
)

// Cue is a single numbered subtitle entry.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// Duration returns how long the cue stays on screen.
func (c Cue) Duration() float64 {
	if c.End <= c.Start {
		return 0
	}
	return c.End - c.Start
}

// Parse decodes SRT content. Blocks without a valid timing line are skipped.
func Parse(data []byte) []Cue {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	content = strings.TrimPrefix(strings.TrimSpace(content), "\uFEFF")
	if content == "" {
		return nil
	}
	var cues []Cue
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		if len(lines) < 2 {
			continue
		}
		timing := 0
		if !strings.Contains(lines[0], "-->") {
			timing = 1
		}
		if timing >= len(lines) {
			continue
		}
		parts := strings.Split(lines[timing], "-->")
		if len(parts) != 2 {
			continue
		}
		start, err := ParseTimestamp(parts[0])
		if err != nil {
			continue
		}
		end, err := ParseTimestamp(parts[1])
		if err != nil {
			continue
		}
		cue := Cue{
			Index: len(cues) + 1,
			Start: start,
			End:   end,
			Text:  strings.TrimSpace(strings.Join(lines[timing+1:], "\n")),
		}
		if timing == 1 {
			if idx, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
				cue.Index = idx
			}
		}
		cues = append(cues, cue)
	}
	return cues
}

// Read parses the SRT file at path.
func Read(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return Parse(data), nil
}

// Format renders cues as SRT, renumbering them from 1.
func Format(cues []Cue) string {
	var sb strings.Builder
	for i, cue := range cues {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d\n", i+1)
		fmt.Fprintf(&sb, "%s --> %s\n", FormatTimestamp(cue.Start), FormatTimestamp(cue.End))
		sb.WriteString(cue.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Write stores cues at path atomically, creating parent directories.
func Write(path string, cues []Cue) error {
	if err := fileutil.WriteFileAtomic(path, []byte(Format(cues)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// ParseTimestamp converts "HH:MM:SS,mmm" (or with a period) to seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// FormatTimestamp renders seconds as "HH:MM:SS,mmm". Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))
	millis := total % 1000
	total /= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", total/3600, (total/60)%60, total%60, millis)
}
