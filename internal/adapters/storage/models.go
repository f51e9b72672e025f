package storage

import "time"

// EntryModel is the GORM model for session entries.
type EntryModel struct {
	CreatedAt     time.Time
	PaneCount     int    `gorm:"not null;default:2;check:pane_count IN (2,3)"`
	UpdatedAt     time.Time
	WindowIndex   int    `gorm:"not null"`
	WorkspaceName string `gorm:"primaryKey"`
}

// TableName specifies the table name for GORM
func (EntryModel) TableName() string { return "session_entries" }
