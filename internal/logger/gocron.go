package logger

import (
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
)

// gocronLogger routes gocron's internal logging to slog.
type gocronLogger struct {
	log *slog.Logger
}

// NewGocronLogger returns a gocron.Logger that writes through log.
//
//nolint:ireturn // gocron.WithLogger takes the interface
func NewGocronLogger(log *slog.Logger) gocron.Logger {
	if log == nil {
		log = slog.Default()
	}
	return gocronLogger{log: log.With("component", "gocron")}
}

func (l gocronLogger) Debug(msg string, args ...any) { l.log.Debug(msg, slogArgs(args)...) }
func (l gocronLogger) Info(msg string, args ...any)  { l.log.Info(msg, slogArgs(args)...) }
func (l gocronLogger) Warn(msg string, args ...any)  { l.log.Warn(msg, slogArgs(args)...) }
func (l gocronLogger) Error(msg string, args ...any) { l.log.Error(msg, slogArgs(args)...) }

// slogArgs turns gocron's loose key/value list into string-keyed pairs. A
// trailing value without a key is logged under "value".
func slogArgs(args []any) []any {
	out := make([]any, 0, len(args))
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out = append(out, "value", args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		out = append(out, key, args[i+1])
	}
	return out
}
