// Package artifact provides the shared key/value exchange used to hand
// artifacts between builders and activities within one run.
//
// Entries are keyed by "<kind>-<name>" and live until the Store is discarded
// or the same key is written again. Keys are deliberately global: an activity
// that reuses another activity's kind and name reads its artifact. Callers
// pick distinct names for unrelated artifacts.
package artifact
