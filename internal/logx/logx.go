package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment falls back to Development for unknown values.
func ParseEnvironment(v string) Environment {
	if Environment(strings.ToLower(v)) == Production {
		return Production
	}

	return Development
}

type Options struct {
	Environment Environment
	Level       string
	// File enables a rotated JSON log file next to stdout.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Init configures the global logger. Production logs JSON at info level,
// development logs to a console writer with callers at debug level.
func Init(opts Options) {
	var out io.Writer = os.Stdout

	level := zerolog.DebugLevel
	if opts.Environment == Production {
		level = zerolog.InfoLevel
	} else {
		out = zerolog.NewConsoleWriter()
	}

	if opts.Level != "" {
		if l, err := zerolog.ParseLevel(opts.Level); err == nil {
			level = l
		}
	}

	if opts.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			Compress:   true,
		})
	}

	ctx := zerolog.New(out).With().Timestamp()
	if opts.Environment != Production {
		ctx = ctx.Caller()
	}

	log.Logger = ctx.Logger().Level(level)
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
