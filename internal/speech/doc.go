// Package speech implements the "tts" activity family: speech synthesis,
// silence generation, clip concatenation and word-level transcripts.
//
// Audio artifacts are decoded PCM clips (media/audio). Synthesis goes through
// the Coqui CLI and transcription through WhisperX; both collaborators are
// interfaces so the family can be exercised without either tool installed.
package speech
