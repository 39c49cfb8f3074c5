package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a configured logrus logger writing to stderr.
// Components receive scoped *logrus.Entry values derived from it rather
// than sharing a package-level logger.
func NewLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.InfoLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log
}

// NewLoggerTo is NewLogger with an explicit output writer.
func NewLoggerTo(w io.Writer, verbose bool) *logrus.Logger {
	log := NewLogger(verbose)
	log.SetOutput(w)
	return log
}

// WithDevice returns an entry scoped with device context.
func WithDevice(log *logrus.Logger, device string) *logrus.Entry {
	return log.WithField("device", device)
}

// WithHop returns an entry scoped with hop context.
func WithHop(log *logrus.Logger, hop string) *logrus.Entry {
	return log.WithField("hop", hop)
}
