package logging

import (
	"log/slog"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBridged(t *testing.T) (*slog.Logger, *test.Hook) {
	t.Helper()
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.DebugLevel)
	log := slog.New(&slogBridge{
		log:  base,
		base: logrus.Fields{"server": "test", "pid": 1},
	})
	return log, hook
}

func TestSlogBridge_ForwardsRecords(t *testing.T) {
	log, hook := newBridged(t)

	log.Info("tool.call.ok", slog.String("tool", "greet"))

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "tool.call.ok", entry.Message)
	assert.Equal(t, "greet", entry.Data["tool"])
	assert.Equal(t, "test", entry.Data["server"])
}

func TestSlogBridge_LevelMapping(t *testing.T) {
	log, hook := newBridged(t)

	log.Debug("d")
	log.Warn("w")
	log.Error("e")

	require.Len(t, hook.Entries, 3)
	assert.Equal(t, logrus.DebugLevel, hook.Entries[0].Level)
	assert.Equal(t, logrus.WarnLevel, hook.Entries[1].Level)
	assert.Equal(t, logrus.ErrorLevel, hook.Entries[2].Level)
}

func TestSlogBridge_GroupsBecomeDottedKeys(t *testing.T) {
	log, hook := newBridged(t)

	log.WithGroup("req").Info("http.post.start", slog.String("id", "abc"))

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "abc", hook.LastEntry().Data["req.id"])
}

func TestSlogBridge_WithAttrsPersist(t *testing.T) {
	log, hook := newBridged(t)

	scoped := log.With(slog.String("transport", "http"))
	scoped.Info("one")
	scoped.Info("two")

	require.Len(t, hook.Entries, 2)
	for _, entry := range hook.Entries {
		assert.Equal(t, "http", entry.Data["transport"])
	}
}

func TestSlogBridge_RespectsLevelFloor(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.WarnLevel)
	log := slog.New(&slogBridge{log: base})

	log.Info("dropped")
	log.Warn("kept")

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "kept", hook.LastEntry().Message)
}
