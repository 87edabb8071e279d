package models

import "time"

// Permission is one entry of the permission catalog.
// Permissions are immutable once created; Name is the sole identity key.
type Permission struct {
	// ID is the surrogate key used by the role-permission join table.
	ID uint `gorm:"primaryKey"`
	// Name is the unique permission identifier in resource:action format (e.g. "students:read").
	Name string `gorm:"unique;size:100;not null"`
	// Resource is the resource part of Name (e.g. "students").
	Resource string `gorm:"size:50;not null"`
	// Action is the action part of Name (e.g. "read").
	Action string `gorm:"size:50;not null"`
	// Description is a human-readable explanation of what the permission grants.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the permission was seeded.
	CreatedAt time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
