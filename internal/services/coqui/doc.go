// Package coqui drives the Coqui TTS command line synthesizer.
//
// Each request runs the configured `tts` binary once and writes a WAV file.
// A speed other than 1.0 is applied afterwards with ffmpeg's atempo filter,
// which changes tempo without shifting pitch.
package coqui
