// Package logging constructs the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"time"
)

// New builds a text logger writing to w. Verbose enables debug level.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey && attr.Value.Kind() == slog.KindTime {
				attr.Value = slog.StringValue(attr.Value.Time().Format(time.TimeOnly))
			}
			return attr
		},
	})
	return slog.New(handler)
}
