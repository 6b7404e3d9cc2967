// Package rtlog is the multiplexer's diagnostic logging: structured,
// file-only, enabled by an environment variable, never written to
// stdout or stderr (both are owned by the terminal renderer — any
// stray log line would corrupt the screen).
//
// Built on github.com/rs/zerolog, a dependency carried in the retrieval
// pack's kimaguri-simplx-toolkit go.mod; this package is the home it
// never got wired to a component there (see DESIGN.md). The teacher
// itself logs via the standard library's log.Printf/log.Println; the
// zerolog event-builder API below reproduces that same call-it-anywhere
// style ([Logger.Error], [Logger.Info]) while adding structured fields.
package rtlog

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the narrow surface Controller needs.
type Logger interface {
	Info(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type zlog struct {
	l zerolog.Logger
}

func (z zlog) Info(msg string, kv ...any) { z.event(z.l.Info(), msg, kv) }
func (z zlog) Error(msg string, kv ...any) { z.event(z.l.Error(), msg, kv) }

func (z zlog) event(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if key == "" {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}

// Discard is a Logger that drops everything, used when RUN_PTY_DEBUG_LOG
// is unset.
var Discard Logger = &zlog{l: zerolog.Nop()}

// FromEnv opens the file named by RUN_PTY_DEBUG_LOG (if set) and returns
// a structured logger writing NDJSON to it; otherwise returns Discard.
// The returned closer should be deferred by the caller.
func FromEnv() (Logger, func() error) {
	path := os.Getenv("RUN_PTY_DEBUG_LOG")
	if path == "" {
		return Discard, func() error { return nil }
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Discard, func() error { return nil }
	}
	l := zerolog.New(f).With().Timestamp().Logger()
	return zlog{l: l}, f.Close
}
