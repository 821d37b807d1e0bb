// Package monitoring provides the swappable logger used by long-running
// grid operations. Library code logs through Logf so callers can redirect
// or silence progress output without touching the global log package.
package monitoring

import "log"

// Logf is the active logging function. Defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the active logging function. Passing nil installs a
// no-op logger, which silences progress output entirely.
func SetLogger(logf func(format string, v ...interface{})) {
	if logf == nil {
		Logf = func(format string, v ...interface{}) {}
		return
	}
	Logf = logf
}
