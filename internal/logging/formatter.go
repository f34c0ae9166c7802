package logging

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ColoredFormatter renders entries for interactive stderr output: timestamp,
// colored level, colored [server:pid] tag, message, then sorted key=value
// fields. It never mutates entry.Data, so it can run as a mirror alongside
// the JSON file formatter.
type ColoredFormatter struct {
	// TimestampFormat is the format used for timestamps.
	TimestampFormat string

	mu           sync.RWMutex
	serverColors map[string]func(format string, a ...interface{}) string
}

var availableColors = []func(format string, a ...interface{}) string{
	color.New(color.FgCyan).SprintfFunc(),
	color.New(color.FgGreen).SprintfFunc(),
	color.New(color.FgYellow).SprintfFunc(),
	color.New(color.FgBlue).SprintfFunc(),
	color.New(color.FgMagenta).SprintfFunc(),
	color.New(color.FgHiCyan).SprintfFunc(),
	color.New(color.FgHiGreen).SprintfFunc(),
	color.New(color.FgHiYellow).SprintfFunc(),
	color.New(color.FgHiBlue).SprintfFunc(),
	color.New(color.FgHiMagenta).SprintfFunc(),
}

// NewColoredFormatter creates a ColoredFormatter with defaults.
func NewColoredFormatter() *ColoredFormatter {
	return &ColoredFormatter{
		TimestampFormat: "2006-01-02 15:04:05.000",
		serverColors:    make(map[string]func(format string, a ...interface{}) string),
	}
}

// Format renders a logrus entry.
func (f *ColoredFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	b.WriteString(entry.Time.Format(f.TimestampFormat))
	b.WriteString(" ")

	levelColor := f.levelColor(entry.Level)
	b.WriteString(levelColor(strings.ToUpper(entry.Level.String())))
	b.WriteString(" ")

	if server, ok := entry.Data["server"]; ok {
		serverName := fmt.Sprintf("%v", server)
		b.WriteString("[")
		b.WriteString(f.serverColor(serverName)(serverName))
		if pid, ok := entry.Data["pid"]; ok {
			fmt.Fprintf(b, ":%v", pid)
		}
		b.WriteString("] ")
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == "server" || k == "pid" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, " %s=%v", key, entry.Data[key])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *ColoredFormatter) levelColor(level logrus.Level) func(format string, a ...interface{}) string {
	switch level {
	case logrus.DebugLevel:
		return color.New(color.FgHiBlack).SprintfFunc()
	case logrus.InfoLevel:
		return color.New(color.FgHiWhite).SprintfFunc()
	case logrus.WarnLevel:
		return color.New(color.FgYellow).SprintfFunc()
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return color.New(color.FgRed).SprintfFunc()
	default:
		return color.New(color.FgWhite).SprintfFunc()
	}
}

// serverColor assigns each server name a stable color, round-robin over the
// palette.
func (f *ColoredFormatter) serverColor(serverName string) func(format string, a ...interface{}) string {
	f.mu.RLock()
	colorFunc, ok := f.serverColors[serverName]
	f.mu.RUnlock()
	if ok {
		return colorFunc
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if colorFunc, ok := f.serverColors[serverName]; ok {
		return colorFunc
	}
	colorFunc = availableColors[len(f.serverColors)%len(availableColors)]
	f.serverColors[serverName] = colorFunc
	return colorFunc
}
