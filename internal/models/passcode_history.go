package models

import (
	"time"
)

// PasscodeHistoryEntry records a previously used passcode hash. Append-only;
// the newest entries are checked on rotation to reject reuse.
type PasscodeHistoryEntry struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UUID         string    `json:"uuid" gorm:"uniqueIndex"`
	PasscodeHash string    `json:"-" gorm:"column:passcode_hash"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}
