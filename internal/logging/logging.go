// Package logging wires the standard logger to a rotating log file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"watchlog/config"
)

// Setup directs log output to stderr and, when a file is configured, to a
// size-rotated log file as well. The returned closer flushes the file writer.
func Setup(settings config.LogSettings) io.Closer {
	log.SetFlags(log.LstdFlags)

	if settings.File == "" {
		log.SetOutput(os.Stderr)
		return io.NopCloser(nil)
	}

	rotator := &lumberjack.Logger{
		Filename:   settings.File,
		MaxSize:    settings.MaxSizeMB,
		MaxBackups: settings.MaxBackups,
		MaxAge:     settings.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}
