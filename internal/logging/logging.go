// Package logging builds the file-backed loggers used by the example
// server binaries. Log lines go to a rotated JSON file under the user's
// home directory and, optionally, to stderr with colored formatting for
// interactive runs. The engine itself logs through log/slog; NewSlogLogger
// bridges an slog front-end onto the rotated sink.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// maxLogBackups is how many rotated files to keep per server.
	maxLogBackups = 5
	// maxLogSizeMB is the rotation threshold for a single file.
	maxLogSizeMB = 10
	// maxLogAgeDays is how long rotated files are retained.
	maxLogAgeDays = 30
)

// Logger wraps a logrus.Logger with the identity of the server process it
// belongs to.
type Logger struct {
	*logrus.Logger
	ServerName string
	PID        int
	FilePath   string
}

// LogDirectory returns the base log directory, creating it if needed.
func LogDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	logDir := filepath.Join(homeDir, ".mcp-engine", "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return logDir, nil
}

// LogFilePath returns the log file path for a server process.
func LogFilePath(serverName string, pid int) (string, error) {
	baseDir, err := LogDirectory()
	if err != nil {
		return "", err
	}

	serverDir := filepath.Join(baseDir, serverName)
	if err := os.MkdirAll(serverDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create server log directory: %w", err)
	}
	return filepath.Join(serverDir, fmt.Sprintf("server_%d.log", pid)), nil
}

// Config controls how NewLogger assembles its output.
type Config struct {
	// Pretty mirrors log lines to stderr with the colored formatter in
	// addition to the JSON file. Off by default so stdio servers keep
	// stderr quiet unless asked.
	Pretty bool
	// Level is the minimum level, e.g. "debug" or "info". Empty means info.
	Level string
}

// NewLogger creates a rotated file logger for a server process.
func NewLogger(serverName string, cfg Config) (*Logger, error) {
	pid := os.Getpid()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	log.SetLevel(level)

	logFilePath, err := LogFilePath(serverName, pid)
	if err != nil {
		return nil, fmt.Errorf("failed to get log file path: %w", err)
	}

	log.SetOutput(&lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
		Compress:   true,
	})
	if cfg.Pretty {
		log.AddHook(&stderrHook{formatter: NewColoredFormatter()})
	}

	return &Logger{
		Logger:     log,
		ServerName: serverName,
		PID:        pid,
		FilePath:   logFilePath,
	}, nil
}

// stderrHook mirrors every entry to stderr using the colored formatter.
// The primary output stays the rotated JSON file.
type stderrHook struct {
	formatter logrus.Formatter
}

func (h *stderrHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *stderrHook) Fire(entry *logrus.Entry) error {
	b, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = os.Stderr.Write(b)
	return err
}

// WithField adds a field plus the server identity fields.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		key:      value,
		"server": l.ServerName,
		"pid":    l.PID,
	})
}

// WithFields adds multiple fields plus the server identity fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	fields["server"] = l.ServerName
	fields["pid"] = l.PID
	return l.Logger.WithFields(fields)
}
