// Package logging configures the process-wide zerolog output: a console
// writer on stderr and, when a log file is configured, a rotating file sink.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds the root logger. level is parsed leniently; unknown values
// fall back to info.
func Setup(level, file string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}

	var out io.Writer = console
	if file != "" {
		rotating := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, rotating)
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
