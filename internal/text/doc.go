// Package text implements the "text" activity family: writing literal or
// file text to files and the text cache, and concatenating text artifacts.
package text
