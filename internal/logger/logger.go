// Package logger holds the process-wide logrus logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It discards output until Init is called.
var Log = discard()

var logFile *os.File

func discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// New builds a text logger writing to w. An unknown level falls back to info.
func New(levelStr string, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	l.SetOutput(w)
	return l
}

// Init replaces Log with a logger writing to stderr and, when filePath is
// set, appending to that file as well.
func Init(levelStr, filePath string) error {
	Close()
	writers := []io.Writer{os.Stderr}
	if filePath != "" {
		if dir := filepath.Dir(filePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		writers = append(writers, f)
	}
	Log = New(levelStr, io.MultiWriter(writers...))
	return nil
}

// Close releases the log file opened by Init, if any.
func Close() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}
