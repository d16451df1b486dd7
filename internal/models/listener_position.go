// Package models defines the persisted data structures.
package models

import "time"

// ListenerPosition stores a listener's last-known playback position so
// "resume where I left off" survives page reloads and reconnects. One row
// per listener; refreshed as playback progresses.
type ListenerPosition struct {
	ListenerID string    `json:"listener_id" gorm:"primaryKey;column:listener_id"`
	Year       int       `json:"year" gorm:"not null"`
	Month      int       `json:"month" gorm:"not null"`
	Day        int       `json:"day" gorm:"not null"`
	Hour       int       `json:"hour" gorm:"not null"`
	Minute     int       `json:"minute" gorm:"not null"`
	Second     int       `json:"second" gorm:"not null"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (ListenerPosition) TableName() string {
	return "listener_positions"
}
