// Package rbacpolicy stores the runtime-editable authorization policy in the settings table.
package rbacpolicy

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/db/controller/setting"
)

const (
	// SettingKey is the key used to store the policy in the settings table.
	SettingKey = "rbac_policy"
)

type (
	// Policy holds the authorization settings administrators may change at runtime.
	Policy struct {
		// DefaultBranchID overrides the earliest active branch as target of orphan role repair.
		// The configuration file value takes precedence over this one.
		DefaultBranchID string `json:"defaultBranchId" validate:"omitempty,max=64"`
	}
)

// Load loads the policy from the database. A missing policy leaves p unchanged.
func (p *Policy) Load(ctx context.Context, db *gorm.DB) error {
	s, err := setting.Get(ctx, db, SettingKey)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	return json.Unmarshal(s.Value, p)
}

// Save saves the policy to the database.
func (p *Policy) Save(ctx context.Context, db *gorm.DB) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return setting.Set(ctx, db, SettingKey, data)
}

// Reset removes the stored policy. Resetting an unset policy is not an error.
func Reset(ctx context.Context, db *gorm.DB) error {
	err := setting.DeleteByName(ctx, db, SettingKey)
	if errors.Is(err, setting.ErrSettingNotFound) {
		return nil
	}

	return err
}

// DefaultBranchLookup returns a lookup of the stored default branch, reading the policy
// afresh on every call. An unset policy yields the empty string.
func DefaultBranchLookup(db *gorm.DB) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		var p Policy
		if err := p.Load(ctx, db); err != nil {
			return "", err
		}

		return p.DefaultBranchID, nil
	}
}
