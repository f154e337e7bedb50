// Package language normalizes user supplied language identifiers.
//
// Descriptors may name a language as a BCP 47 tag ("ro", "pt-BR"), an ISO
// 639-2 code ("ger"), or an English word ("Romanian"). Resolve turns any of
// these into a golang.org/x/text/language Tag; the translation and
// transcription collaborators then take the ISO 639-1 code or the English
// display name from it.
package language
