// Package ffprobe decodes ffprobe JSON for clip inspection.
//
// Inspect runs ffprobe through a services.CommandRunner so callers can
// substitute canned output in tests.
package ffprobe
