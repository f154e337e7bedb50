// Package audio holds decoded PCM clips and the WAV codec used for audio
// artifacts.
//
// A Clip stores interleaved integer samples together with their format.
// Clips of different formats are converted to the first clip's format when
// concatenated, so synthesized speech and generated silence can be joined
// regardless of the sample rate each producer picked.
package audio
