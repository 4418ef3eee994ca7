package models

import (
	"time"
)

// SecurityConfigKey is the fixed key of the singleton config row. Every read
// and write in the service targets this one row.
const SecurityConfigKey = "admin-security"

// SecurityConfig holds the passcode gate state for the shared admin identity.
// Exactly one row ever exists; it is created lazily on first request and
// mutated only through the store's atomic operations.
type SecurityConfig struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	UUID string `json:"uuid" gorm:"uniqueIndex"`
	Name string `json:"name" gorm:"uniqueIndex"`

	AdminEmail string `json:"admin_email"`
	// PasscodeHash is opaque to everything outside internal/store.
	PasscodeHash string `json:"-" gorm:"column:passcode_hash"`

	// Bootstrapped marks a config seeded with a random unknown passcode.
	// Unlock refuses to verify while it is set; the first explicit rotation
	// or reset clears it.
	Bootstrapped       bool `json:"bootstrapped"`
	RequireFingerprint bool `json:"require_fingerprint"`

	FailedAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil    *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
