package observability

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global logger with the specified level.
// Console output goes to stderr since stdout carries the report.
// If logFile is not empty, logs are also appended to that file.
func InitLogger(level string, logFile string) {
	log.Logger = NewLogger(os.Stderr, logFile)
	zerolog.SetGlobalLevel(ParseLogLevel(level))

	log.Debug().
		Str("level", ParseLogLevel(level).String()).
		Str("file", logFile).
		Msg("Logger initialized")
}

// NewLogger builds a console logger writing to out and, when logFile is
// set, to the file as well
func NewLogger(out io.Writer, logFile string) zerolog.Logger {
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
	}}

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, using stderr only\n", logFile, err)
		} else {
			writers = append(writers, file)
		}
	}

	return zerolog.New(io.MultiWriter(writers...)).With().Timestamp().Logger()
}

// ParseLogLevel parses a string log level to zerolog.Level
func ParseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}
