// Package logging hands out logrus loggers tagged with a component name.
//
// Every component logger shares one underlying *logrus.Logger so that a
// single Configure call (made once the config is loaded) redirects all of
// them. Until then they log warnings and above to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Makepad-fr/tada/internal/config"
)

var (
	base      = newBase()
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
	logFile   *os.File
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l
}

// NewLogger returns the logger for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}
	logger := base.WithField("component", component)
	loggers[component] = logger
	return logger
}

// Configure applies level, format and file sink from cfg. The TADA_LOG_LEVEL
// environment variable wins over cfg.Level. When the log file cannot be
// opened, output stays on stderr.
func Configure(cfg config.LogConfig) error {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	levelStr := "info"
	if env := os.Getenv("TADA_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	base.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	if cfg.File == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		base.Warnf("Failed to create log directory %s: %v", filepath.Dir(cfg.File), err)
		return nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		base.Warnf("Failed to open log file %s: %v", cfg.File, err)
		return nil
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	base.SetOutput(f)
	return nil
}

// SetLevel overrides the level of every component logger.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}

// SetOutput redirects every component logger to w.
func SetOutput(w io.Writer) {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	base.SetOutput(w)
}
