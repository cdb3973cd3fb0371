// Package log exposes the logger accepted by the fmsched SDK.
//
// Clients are silent by default. Pass a [Logger] in lib.Config to see what the
// scheduler does: task retries, plugin calls and failed entries are logged at
// debug and warning levels, every line tagged with the emitting service.
//
// Any type with the logrus style methods fits, for example a thin wrapper over
// log/slog:
//
//	type slogger struct{ l *slog.Logger }
//
//	func (s slogger) Debugf(format string, args ...any) { s.l.Debug(fmt.Sprintf(format, args...)) }
//	func (s slogger) WithValues(kv log.Kv) log.Logger  { ... }
//	// ... remaining methods
package log

import "github.com/slok/fmsched/internal/log"

// Logger is the SDK logger.
type Logger = log.Logger

// Kv are structured key-value pairs attached to log lines.
type Kv = log.Kv

// Noop discards everything, it's the default.
var Noop = log.Noop
