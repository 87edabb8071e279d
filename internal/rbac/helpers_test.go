package rbac_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/rbacstore"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/dbtest"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// fixedClock returns a clock stopped at epoch.
func fixedClock() rbac.Option {
	return rbac.WithClock(func() time.Time { return epoch })
}

func setup(t *testing.T) (*gorm.DB, *rbacstore.Store) {
	t.Helper()

	db := dbtest.Open(t)

	return db, rbacstore.New(db)
}

var errStoreDown = errors.New("store unreachable")

// brokenStore fails every unit of work.
type brokenStore struct{}

func (brokenStore) View(context.Context, func(rbac.Reader) error) error {
	return errStoreDown
}

func (brokenStore) Update(context.Context, func(rbac.Writer) error) error {
	return errStoreDown
}
