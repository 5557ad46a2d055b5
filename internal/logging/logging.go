package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nikiskaarup/nanabox/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup configures logger from settings. --verbose wins over the
// configured level. When a log file is set, output is written to stderr
// and to the rotated file; the returned Closer releases the file.
func Setup(logger *logrus.Logger, cfg config.LogConfig, verbose bool) io.Closer {
	formatter := &logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   true,
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		defer logger.Warnf("Unknown log level %q, using info", cfg.Level)
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if cfg.File == "" {
		logger.SetFormatter(formatter)
		logger.SetOutput(os.Stderr)
		return nopCloser{}
	}

	// lumberjack handles rotation of the log file.
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	// Escape codes would end up in the file.
	formatter.ForceColors = false
	formatter.DisableColors = true
	logger.SetFormatter(formatter)
	logger.SetOutput(io.MultiWriter(os.Stderr, file))
	return file
}
