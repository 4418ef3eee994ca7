package models

import (
	"time"
)

// ResetToken stores a salted digest of an emailed reset code. The code itself
// is never persisted, so redemption scans recent rows instead of looking the
// code up by value.
type ResetToken struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	UUID string `json:"uuid" gorm:"uniqueIndex"`

	AdminEmail      string `json:"admin_email" gorm:"index"`
	CodeHash        string `json:"-"`
	CodeSalt        string `json:"-"`
	RequestedIP     string `json:"requested_ip" gorm:"index"`
	RequestedUserID string `json:"requested_user_id,omitempty"`

	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
}

// Redeemable reports whether the token is still unused and unexpired.
func (t *ResetToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
