package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a school campus. It is the tenant boundary under which roles and role assignments are scoped.
type Branch struct {
	// ID is the branch identifier. Callers may supply a short code (e.g. "B1"); a UUID is generated otherwise.
	ID string `gorm:"primaryKey;size:64"`
	// Name is the display name of the branch.
	Name string `gorm:"size:100;not null"`
	// Active marks branches that take part in default-branch selection.
	Active bool `gorm:"not null"`
	// CreatedAt is the creation timestamp; it orders branches for default-branch selection.
	CreatedAt time.Time
	// UpdatedAt is the timestamp of the last update (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Branch model.
func (Branch) TableName() string {
	return "branches"
}

// BeforeCreate assigns a generated identifier to branches created without one.
func (b *Branch) BeforeCreate(_ *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	return nil
}
