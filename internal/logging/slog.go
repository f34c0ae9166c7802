package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewSlogLogger returns an slog.Logger whose records are forwarded to the
// file-backed logrus logger. The engine and transports log through slog;
// this bridge is what routes those lines into the rotated sink.
func NewSlogLogger(l *Logger) *slog.Logger {
	return slog.New(&slogBridge{
		log: l.Logger,
		base: logrus.Fields{
			"server": l.ServerName,
			"pid":    l.PID,
		},
	})
}

// slogBridge adapts slog records onto a logrus logger. Attribute groups
// become dotted key prefixes.
type slogBridge struct {
	log    *logrus.Logger
	base   logrus.Fields
	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*slogBridge)(nil)

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	return b.log.IsLevelEnabled(logrusLevel(level))
}

func (b *slogBridge) Handle(_ context.Context, rec slog.Record) error {
	fields := make(logrus.Fields, len(b.base)+len(b.attrs)+rec.NumAttrs())
	for k, v := range b.base {
		fields[k] = v
	}
	for _, a := range b.attrs {
		fields[a.Key] = a.Value.Any()
	}
	prefix := ""
	if len(b.groups) > 0 {
		prefix = strings.Join(b.groups, ".") + "."
	}
	rec.Attrs(func(a slog.Attr) bool {
		fields[prefix+a.Key] = a.Value.Any()
		return true
	})
	b.log.WithFields(fields).Log(logrusLevel(rec.Level), rec.Message)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := b.clone()
	prefix := ""
	if len(next.groups) > 0 {
		prefix = strings.Join(next.groups, ".") + "."
	}
	for _, a := range attrs {
		a.Key = prefix + a.Key
		next.attrs = append(next.attrs, a)
	}
	return next
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	next := b.clone()
	next.groups = append(next.groups, name)
	return next
}

func (b *slogBridge) clone() *slogBridge {
	return &slogBridge{
		log:    b.log,
		base:   b.base,
		attrs:  append([]slog.Attr(nil), b.attrs...),
		groups: append([]string(nil), b.groups...),
	}
}

func logrusLevel(level slog.Level) logrus.Level {
	switch {
	case level >= slog.LevelError:
		return logrus.ErrorLevel
	case level >= slog.LevelWarn:
		return logrus.WarnLevel
	case level >= slog.LevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}
