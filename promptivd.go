// Package promptivd defines the shared data model and wire protocol used by
// the relay daemon and its companion CLIs (promptivc, promptivs). It has no
// knowledge of HTTP or WebSocket transport; those live in internal/api and
// internal/sink respectively.
package promptivd

// SchemaVersion is the only schema version accepted on the wire today.
// Non-register frames with a mismatched version are logged and ignored
// rather than rejected; register frames with a mismatched version are a
// fatal protocol error.
const SchemaVersion = "1.0"

// Logger is the structured logging interface used throughout the daemon.
// It is satisfied by a zerolog-backed implementation in internal/config.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
