package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReplace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := Replace(zap.New(core))

	Info("sweep finished", "due", 2)
	Warn("tick skipped")
	restore()

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "sweep finished", entries[0].Message)
		assert.Equal(t, int64(2), entries[0].ContextMap()["due"])
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	}

	Info("after restore")
	assert.Equal(t, 2, logs.Len())
}
