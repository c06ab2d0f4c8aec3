package logger

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx/fxevent"
)

type fxWriter struct {
	l zerolog.Logger
}

var _ io.Writer = (*fxWriter)(nil)

// Fx adapts the global zerolog logger to fx's event logger.
func Fx() fxevent.Logger {
	return &fxevent.ConsoleLogger{
		W: fxWriter{
			l: log.Logger.
				With().
				Str("evt.name", "fx.init").
				Logger(),
		},
	}
}

func (w fxWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	// trim the trailing newline stdlog-style writers append
	if n > 0 && p[n-1] == '\n' {
		p = p[0 : n-1]
	}
	w.l.Info().Msg(string(p))
	return
}
