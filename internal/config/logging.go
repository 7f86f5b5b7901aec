package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/midsbie/promptivd"
)

// ZeroLogger adapts zerolog to the promptivd.Logger interface, used by the
// daemon. The promptivc and promptivs CLIs do not use it; they print plain
// text.
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewLogger builds a ZeroLogger writing to stderr. format selects between
// "json" (the default zerolog encoding) and "pretty" (zerolog's console
// writer); level is parsed with zerolog.ParseLevel and defaults to info on
// an unrecognized string.
func NewLogger(level, format string) *ZeroLogger {
	var writer zerolog.LevelWriter
	if format == "pretty" {
		writer = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	} else {
		writer = zerolog.MultiLevelWriter(zerolog.SyncWriter(os.Stderr))
	}

	l := zerolog.New(writer).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		l = l.Level(lvl)
	} else {
		l = l.Level(zerolog.InfoLevel)
	}
	return &ZeroLogger{logger: l}
}

func (l *ZeroLogger) log(event *zerolog.Event, msg string, keysAndValues ...interface{}) {
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		if i+1 < len(keysAndValues) {
			event.Interface(key, keysAndValues[i+1])
		} else {
			event.Interface(key, nil)
		}
	}
	event.Msg(msg)
}

func (l *ZeroLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Debug(), msg, keysAndValues...)
}

func (l *ZeroLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Info(), msg, keysAndValues...)
}

func (l *ZeroLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Warn(), msg, keysAndValues...)
}

func (l *ZeroLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log(l.logger.Error(), msg, keysAndValues...)
}

var _ promptivd.Logger = (*ZeroLogger)(nil)
