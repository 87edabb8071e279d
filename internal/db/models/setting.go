// Package models contains the gorm model definitions of the authorization data model.
package models

// Setting represents a named configuration value stored in the database.
// The reconciliation routines read rbac.* settings from here.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100;not null"`
	Value []byte
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}
