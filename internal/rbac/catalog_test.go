package rbac_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

func TestParsePermission(t *testing.T) {
	testCases := []struct {
		in    string
		valid bool
	}{
		{"students:read", true},
		{"reports:export", true},
		{"students", false},
		{":read", false},
		{"students:", false},
		{"Students:Read", false},
		{"students:read:extra", false},
		{"*", false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			p, err := rbac.ParsePermission(tc.in)
			if !tc.valid {
				require.ErrorIs(t, err, rbac.ErrInvalidPermission)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, rbac.Permission(tc.in), p)
		})
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := rbac.NewCatalog(
		rbac.Definition{Name: "students:read"},
		rbac.Definition{Name: "students:read"},
	)
	require.ErrorIs(t, err, rbac.ErrDuplicatePermission)
}

func TestDefaultCatalog(t *testing.T) {
	c := rbac.DefaultCatalog()

	assert.True(t, c.Contains(rbac.PermStudentsRead))
	assert.True(t, c.Contains(rbac.PermBranchesRead))
	assert.True(t, c.Contains(rbac.PermRolesAssign))
	assert.False(t, c.Contains("branch:read"))

	def, ok := c.Lookup(rbac.PermFinanceApprove)
	require.True(t, ok)
	assert.Equal(t, "finance", def.Resource)
	assert.Equal(t, "approve", def.Action)
	assert.NotEmpty(t, def.Description)

	assert.Equal(t, c.Len(), len(c.Names()))
}

func TestExpand(t *testing.T) {
	c := rbac.DefaultCatalog()

	set, unknown := c.Expand([]string{"courses:read", "grades:create", "courses:read", "typo:read"})
	assert.Equal(t, []string{"courses:read", "grades:create"}, rbac.Sorted(set))
	assert.Equal(t, []string{"typo:read"}, unknown)

	all, unknown := c.Expand([]string{rbac.Wildcard})
	assert.Empty(t, unknown)
	assert.Len(t, all, c.Len())
}
