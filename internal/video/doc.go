// Package video implements the "moviepy" activity family: rendering still
// images with narration into clips, concatenating clips, burning in text
// overlays and subtitles, generating subtitles with WhisperX, and encoding
// finished videos to AV1 with Drapto.
//
// Video artifacts are file-backed. A Clip names a file in the run work
// directory together with its probed properties, and every operation writes
// a new file through FFmpeg rather than mutating its input. The artifact
// cache therefore holds clips by path, and the run work directory must
// outlive every activity that reads them.
package video
