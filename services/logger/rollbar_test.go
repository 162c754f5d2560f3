package logsvc

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

func TestRollbarLogger(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := NewRollbarLogger(zap.New(obsCore), core.NewTestConfig())
	logger.Enable(false)

	usr := user.User{Model: core.Model{ID: core.NewID()}, Username: "jane"}
	logger.Error("boom", errors.New("failed"), usr, map[string]interface{}{"path": "/api"})
	logger.Info("hello")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "boom", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "failed", ctx["error"])
	assert.Equal(t, usr.ID, ctx["user_id"])
	assert.Equal(t, "jane", ctx["username"])
	assert.Equal(t, "/api", ctx["path"])

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Empty(t, entries[1].ContextMap())
}

func TestRollbarLoggerCaller(t *testing.T) {
	obsCore, logs := observer.New(zapcore.DebugLevel)
	logger := NewRollbarLogger(zap.New(obsCore, zap.AddCaller()), core.NewTestConfig())
	logger.Enable(false)

	logger.Warn("careful")
	var cl core.Logger = logger
	cl.Error("boom", errors.New("failed"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		require.True(t, entry.Caller.Defined)
		assert.Equal(t, "rollbar_test.go", filepath.Base(entry.Caller.File), entry.Message)
	}
}

func TestPrepare(t *testing.T) {
	logger := NewRollbarLogger(zap.NewNop(), core.NewTestConfig())
	logger.Enable(false)

	err := errors.New("failed")
	args := logger.prepare("msg", []interface{}{err, user.User{}, user.User{}})
	assert.Equal(t, []interface{}{"msg", err}, args)
}
