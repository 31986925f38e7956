package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New builds the logrus logger shared by the CLI and the relay. level
// takes precedence over verbose; an unparsable level falls back to info.
func New(out io.Writer, level string, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	// Set timestamp format with milliseconds
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	switch parsed, err := logrus.ParseLevel(level); {
	case level != "" && err == nil:
		logger.SetLevel(parsed)
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}
