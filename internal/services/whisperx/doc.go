// Package whisperx wraps the WhisperX speech recognizer.
//
// WhisperX runs through uvx so no Python environment has to be managed by the
// caller. Audio is first normalized with ffmpeg to mono 16 kHz PCM, then
// transcribed with word-level alignment. The JSON output is decoded into
// Segment values that carry per-word timing.
//
// External binaries are invoked through a services.CommandRunner so tests can
// substitute a fake.
package whisperx
