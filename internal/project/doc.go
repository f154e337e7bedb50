// Package project runs a project descriptor end to end.
//
// Manager loads the project, walks its pipeline references in order, and
// hands each activity to a fresh handler built from the registry. Failures
// are contained at the smallest unit: a bad pipeline reference skips that
// pipeline, an unknown activity type or a family that fails to construct
// skips that activity, and a failed action is recorded while its activity
// keeps going. Only cancellation of the run context stops the run early.
//
// Each run holds an exclusive lock on the state directory, gets a uuid run
// id, and owns a work directory under paths.work_dir that is removed when the
// run ends unless paths.keep_work_dir is set. Results are returned as a
// Report and, when configured, recorded in the history ledger and exported as
// Prometheus metrics.
package project
