package health_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/dbtest"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler/health"
)

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)

	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(out)
}

func TestLiveness(t *testing.T) {
	var alive atomic.Bool

	alive.Store(true)

	app := fiber.New()
	h := &health.Service{}
	require.NoError(t, h.Init(app, dbtest.Open(t), alive.Load))

	code, body := get(t, app, health.Path)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get(t, app, health.DetailsPath)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, body)

	alive.Store(false)

	code, body = get(t, app, health.Path)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"down"}`, body)
}

func TestDetailsReportsDatabaseFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(assert.AnError)

	app := fiber.New()
	h := &health.Service{}
	require.NoError(t, h.Init(app, db, func() bool { return true }))

	code, body := get(t, app, health.DetailsPath)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.JSONEq(t, `{"status":"error","database":"error"}`, body)
}

func TestInitRequiresDependencies(t *testing.T) {
	h := &health.Service{}
	require.ErrorIs(t, h.Init(fiber.New(), nil, func() bool { return true }), handler.ErrNilDependency)
}
