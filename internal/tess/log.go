package tess

import "log"

// logf is the package diagnostic logger. It defaults to log.Printf; tests
// and embedding applications can redirect or mute it via SetLogger.
var logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		logf = func(string, ...interface{}) {}
		return
	}
	logf = f
}
