// Package translate implements the "gtrans" activity family: translating
// text artifacts between languages through an LLM chat completion client.
//
// Languages come from the action ("lang-source", "lang-target"), then the
// activity defaults, then the [translation] config section, and are checked
// as language tags before any request is made.
package translate
