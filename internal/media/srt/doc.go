// Package srt reads and writes SubRip subtitle files.
//
// Cues carry start and end offsets in seconds. Parse tolerates both comma and
// period millisecond separators and skips malformed blocks. Transcripts from
// the speech recognizer are rendered either one word per cue (FromWords) or
// one segment per cue (FromSegments).
package srt
