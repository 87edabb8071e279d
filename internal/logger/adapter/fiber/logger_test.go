package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger"
	adapter "github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/logger/adapter/fiber"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/guard"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/session"
)

// accessEntry is the json format of one access log line.
type accessEntry struct {
	IP      net.IP    `json:"ip"`
	Status  int       `json:"status"`
	Latency float64   `json:"latency"`
	URI     string    `json:"uri"`
	Method  string    `json:"method"`
	Host    string    `json:"host"`
	UserID  uint64    `json:"user_id"`
	Branch  string    `json:"branch"`
	Denied  bool      `json:"denied"`
	Time    time.Time `json:"time"`
}

var consoleConfig = adapter.Config{
	Config: logger.Log{
		EnableAccessLogToConsole: true,
		Console:                  logger.Console{Enabled: true},
	},
}

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config adapter.Config
		want   *accessEntry
	}{
		{
			name: "empty config no output at all",
			path: "/api/health",
		},
		{
			name:   "get to console json",
			path:   "/api/health",
			config: consoleConfig,
			want:   &accessEntry{Status: 200, URI: "/api/health", Method: fiber.MethodGet},
		},
		{
			name:   "unknown route keeps unnormalized path",
			path:   "/api//students",
			config: consoleConfig,
			want:   &accessEntry{Status: 404, URI: "/api//students", Method: fiber.MethodGet},
		},
		{
			name:   "query string is logged",
			path:   "/api/health?verbose=1",
			config: consoleConfig,
			want:   &accessEntry{Status: 200, URI: "/api/health?verbose=1", Method: fiber.MethodGet},
		},
		{
			name: "check alive calls are skipped",
			path: "/api/health",
			config: adapter.Config{
				Config: logger.Log{
					EnableAccessLogToConsole: true,
					DisableCheckAlive:        true,
					Console:                  logger.Console{Enabled: true},
				},
				CheckAliveURI: "/api/health",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := capture(t, tt.path, tt.config, nil)

			if tt.want == nil {
				assert.Empty(t, output)
				return
			}

			var got accessEntry
			require.NoError(t, json.Unmarshal([]byte(output), &got))

			assert.Equal(t, "example.com", got.Host)
			assert.Equal(t, tt.want.Method, got.Method)
			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, net.ParseIP("0.0.0.0"), got.IP)
			assert.Equal(t, tt.want.URI, got.URI)
			assert.Zero(t, got.UserID)
			assert.False(t, got.Denied)
		})
	}
}

func TestAccessLogCarriesPrincipalAndBranch(t *testing.T) {
	authorize := func(c *fiber.Ctx) error {
		c.Locals(session.LocalsPrincipal, session.Principal{UserID: 7, Username: "teacher1"})
		c.Locals(guard.LocalsBranch, "B1")

		return c.Next()
	}

	output := capture(t, "/api/health", consoleConfig, authorize)

	var got accessEntry
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, uint64(7), got.UserID)
	assert.Equal(t, "B1", got.Branch)
}

func TestAccessLogMarksDenials(t *testing.T) {
	deny := func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	output := capture(t, "/api/health", consoleConfig, deny)

	var got accessEntry
	require.NoError(t, json.Unmarshal([]byte(output), &got))
	assert.Equal(t, fiber.StatusForbidden, got.Status)
	assert.True(t, got.Denied)
}

// capture runs one request through the access log middleware and returns what it wrote to the console.
func capture(t *testing.T, targetPath string, cfg adapter.Config, inner fiber.Handler) string {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	r, w, err := os.Pipe()
	require.NoError(t, err)

	os.Stdout = w
	os.Stderr = w

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
	})

	app.Use(adapter.New(cfg))

	if inner != nil {
		app.Use(inner)
	}

	app.Get("/api/health", func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})

	_, reqErr := app.Test(httptest.NewRequest(fiber.MethodGet, targetPath, nil), -1)

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer

		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout
	os.Stderr = stderr
	out := <-outC

	require.NoError(t, reqErr)

	return out
}
