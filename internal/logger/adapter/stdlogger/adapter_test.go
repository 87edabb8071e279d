package stdlogger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger/adapter/stdlogger"
)

// the adapter is handed to the asynq server and scheduler.
var _ asynq.Logger = stdlogger.NewComponent("jobs")

type line struct {
	Level     string `json:"level"`
	Component string `json:"component"`
	Message   string `json:"message"`
}

// useBuffer points the global logger at a buffer for the duration of the test.
func useBuffer(t *testing.T, level zerolog.Level) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer

	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(level)

	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []line {
	t.Helper()

	var out []line

	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}

		var l line
		require.NoError(t, json.Unmarshal([]byte(raw), &l), raw)
		out = append(out, l)
	}

	return out
}

func TestPrintfStyle(t *testing.T) {
	buf := useBuffer(t, zerolog.InfoLevel)

	l := stdlogger.New()
	l.Debugf("hidden %d", 1)
	l.Infof("queue %s started", "rbac")
	l.Warningf("retry %d of %d", 2, 3)
	l.Errorf("task %q failed", "rbac:backfill")

	assert.Equal(t, []line{
		{Level: "info", Message: "queue rbac started"},
		{Level: "warn", Message: "retry 2 of 3"},
		{Level: "error", Message: `task "rbac:backfill" failed`},
	}, lines(t, buf))
}

func TestLeveledWithComponent(t *testing.T) {
	buf := useBuffer(t, zerolog.DebugLevel)

	l := stdlogger.NewComponent("asynq")
	l.Debug("scheduler ", "tick")
	l.Info("worker", " started")
	l.Warn("lease ", 3, " expired")
	l.Error("redis down")

	assert.Equal(t, []line{
		{Level: "debug", Component: "asynq", Message: "scheduler tick"},
		{Level: "info", Component: "asynq", Message: "worker started"},
		{Level: "warn", Component: "asynq", Message: "lease 3 expired"},
		{Level: "error", Component: "asynq", Message: "redis down"},
	}, lines(t, buf))
}

func TestDisabledLevel(t *testing.T) {
	buf := useBuffer(t, zerolog.Disabled)

	stdlogger.NewComponent("asynq").Error("not written")

	assert.Empty(t, buf.String())
}
