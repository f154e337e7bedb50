// Package handler executes one activity against a family's command table.
//
// A Family supplies LoadDefaults, applied once from the activity's defaults,
// and a table mapping command names to Command values. Handler walks the
// activity's actions in declaration order: disabled actions are skipped,
// missing or unknown commands are logged and skipped, and a command's error
// marks that action failed without stopping the activity. A Handler is
// single use; a second Run returns ErrHandlerSpent.
//
// Registry maps activity type strings to family factories.
package handler
