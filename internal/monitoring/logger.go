package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf
// but may be replaced by SetLogger; tests or embedding hosts can redirect
// or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logf that prepends a fixed tag, used by per-display
// pipeline workers so their lines are attributable. It resolves Logf at
// call time, so SetLogger affects already-created prefixed loggers.
func Prefixed(tag string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf("["+tag+"] "+format, v...)
	}
}
