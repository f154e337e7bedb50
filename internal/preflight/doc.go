// Package preflight provides readiness checks for the directories, binaries,
// and services mediaflow depends on.
//
// These checks run in two contexts:
//   - The project manager calls RunAll before a run. A failed check aborts
//     the run before any activity starts.
//   - The CLI "mediaflow check" command calls the individual checks to
//     display environment health.
package preflight
