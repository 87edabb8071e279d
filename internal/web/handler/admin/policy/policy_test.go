package policy_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/rbacpolicy"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/dbtest"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/handler/admin/policy"
)

func TestPolicyRoundTrip(t *testing.T) {
	db := dbtest.Open(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	dbtest.Branch(t, db, "B1", true, created)
	dbtest.Branch(t, db, "OLD", false, created)

	app := fiber.New()
	h := &policy.Service{}
	require.NoError(t, h.Init(app, db))

	call := func(method, body string) (int, string) {
		req := httptest.NewRequest(method, policy.Path, strings.NewReader(body))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

		resp, err := app.Test(req, -1)
		require.NoError(t, err)

		defer resp.Body.Close()

		out, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		return resp.StatusCode, string(out)
	}

	code, out := call(http.MethodGet, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"defaultBranchId":""}`, out)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown branch", `{"defaultBranchId":"B9"}`, http.StatusUnprocessableEntity},
		{"inactive branch", `{"defaultBranchId":"OLD"}`, http.StatusUnprocessableEntity},
		{"too long", `{"defaultBranchId":"` + strings.Repeat("x", 65) + `"}`, http.StatusBadRequest},
		{"malformed", `{`, http.StatusBadRequest},
		{"active branch", `{"defaultBranchId":"B1"}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := call(http.MethodPut, tt.body)
			assert.Equal(t, tt.status, code)
		})
	}

	code, out = call(http.MethodGet, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"defaultBranchId":"B1"}`, out)

	branch, err := rbacpolicy.DefaultBranchLookup(db)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B1", branch)

	code, _ = call(http.MethodPut, `{"defaultBranchId":""}`)
	require.Equal(t, http.StatusOK, code)

	branch, err = rbacpolicy.DefaultBranchLookup(db)(context.Background())
	require.NoError(t, err)
	assert.Empty(t, branch)

	code, _ = call(http.MethodPut, `{"defaultBranchId":"B1"}`)
	require.Equal(t, http.StatusOK, code)

	code, out = call(http.MethodDelete, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"defaultBranchId":""}`, out)

	var stored rbacpolicy.Policy
	require.NoError(t, stored.Load(context.Background(), db))
	assert.Empty(t, stored.DefaultBranchID)
}
