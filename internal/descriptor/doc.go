// Package descriptor parses project and pipeline descriptor files.
//
// A project names an ordered list of pipeline references; each pipeline is a
// separate file holding an ordered list of activities, and each activity
// holds default parameters plus an ordered list of actions. Actions keep
// their command-specific parameters as raw JSON so every command can decode
// them into its own typed parameter struct with documented defaults.
//
// Descriptors are JSON by default; files ending in .yaml or .yml are decoded
// with YAML and normalized to the same JSON shape.
package descriptor
