// Package drapto integrates the Drapto Go library so finished videos can be
// transcoded to AV1 while progress is reported back to the caller.
//
// Library implements Encoder by calling Drapto directly. The reporter adapter
// folds Drapto's Reporter callbacks into ProgressUpdate values.
package drapto
