// Package main hosts the mediaflow CLI entrypoint and command graph.
//
// The Cobra-based command tree runs and validates project descriptors, lists
// the registered handler families, shows recorded runs, checks the external
// tools and services the families depend on, and scaffolds configuration.
// Configuration resolution and logger setup live here so the internal
// packages stay free of terminal concerns.
package main
