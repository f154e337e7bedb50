// Package services defines shared utilities consumed by the handler families
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, pipeline titles, activity names, and
//     command names for logging.
//   - Structured error markers plus the Wrap helper so collaborator failures
//     read the same way in every family.
//   - A command runner abstraction that makes exec-based collaborators
//     (ffmpeg, whisperx, tts) testable.
//
// Use these helpers when wiring new family logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
