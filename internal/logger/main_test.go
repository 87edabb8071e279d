package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger"
)

func baseConfig(level string) logger.Log {
	return logger.Log{LogLevel: level, ServiceName: "rbacd", AppName: "rbacd", LogEnv: "test"}
}

// captureOutput runs emit with stdout and stderr redirected into one pipe.
// Init is called after the redirect because the console writer binds the streams then.
func captureOutput(t *testing.T, cfg logger.Log, emit func()) string {
	t.Helper()

	stdout, stderr := os.Stdout, os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout, os.Stderr = w, w

	done := make(chan string)

	go func() {
		var buf bytes.Buffer

		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	initErr := logger.Init(cfg)
	if initErr == nil {
		emit()
	}

	_ = w.Close()
	os.Stdout, os.Stderr = stdout, stderr
	out := <-done

	require.NoError(t, initErr)

	return out
}

type entry struct {
	Level   string `json:"level"`
	Service string `json:"service"`
	Env     string `json:"env"`
	Message string `json:"message"`
	Caller  string `json:"caller"`
	Error   string `json:"error"`
}

func jsonLines(t *testing.T, out string) []entry {
	t.Helper()

	var entries []entry

	for _, raw := range strings.Split(strings.TrimSpace(out), "\n") {
		if raw == "" {
			continue
		}

		var e entry
		require.NoError(t, json.Unmarshal([]byte(raw), &e), raw)
		entries = append(entries, e)
	}

	return entries
}

func emitAll() {
	log.Trace().Msg("trace entry")
	log.Debug().Msg("debug entry")
	log.Info().Msg("info entry")
	log.Warn().Msg("warn entry")
	log.Error().Err(errors.New("store unavailable")).Msg("error entry")
}

func TestInitLevels(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"error", []string{"error entry"}},
		{"warn", []string{"warn entry", "error entry"}},
		{"info", []string{"info entry", "warn entry", "error entry"}},
		{"trace", []string{"trace entry", "debug entry", "info entry", "warn entry", "error entry"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := baseConfig(tt.level)
			cfg.Console.Enabled = true

			var got []string

			for _, e := range jsonLines(t, captureOutput(t, cfg, emitAll)) {
				assert.Equal(t, "rbacd", e.Service)
				assert.Equal(t, "test", e.Env)
				got = append(got, e.Message)
			}

			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestInitWithoutOutputs(t *testing.T) {
	assert.Empty(t, captureOutput(t, baseConfig("info"), emitAll))
}

func TestInitConsoleWriter(t *testing.T) {
	cfg := baseConfig("info")
	cfg.Console = logger.Console{Enabled: true, UseConsoleWriter: true}

	out := captureOutput(t, cfg, emitAll)

	assert.Contains(t, out, "info entry")
	assert.Contains(t, out, "store unavailable")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "{"), "console writer output is not json")
}

func TestInitReportCaller(t *testing.T) {
	cfg := baseConfig("info")
	cfg.Console.Enabled = true
	cfg.ReportCaller = true

	entries := jsonLines(t, captureOutput(t, cfg, func() { log.Info().Msg("with caller") }))
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Caller, "main_test.go")
}

func TestInitRejectsMissingNames(t *testing.T) {
	cfg := baseConfig("info")
	cfg.ServiceName = ""
	require.ErrorIs(t, logger.Init(cfg), logger.ErrServiceNameIsEmpty)

	cfg = baseConfig("info")
	cfg.AppName = ""
	require.ErrorIs(t, logger.Init(cfg), logger.ErrAppNameIsEmpty)

	require.Error(t, logger.Init(baseConfig("loud")))
}

func TestComponent(t *testing.T) {
	cfg := baseConfig("info")
	cfg.Console.Enabled = true

	out := captureOutput(t, cfg, func() {
		l := logger.Component("jobs")
		l.Info().Msg("component message")
	})

	assert.Contains(t, out, `"component":"jobs"`)
}
