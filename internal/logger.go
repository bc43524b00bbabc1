package internal

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return l
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}
