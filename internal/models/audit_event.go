package models

import (
	"time"
)

// Audit actions emitted by the passcode gate.
const (
	AuditUnlockSuccess      = "unlock_success"
	AuditUnlockFailed       = "unlock_failed"
	AuditPasscodeChanged    = "passcode_changed"
	AuditChangeFailed       = "passcode_change_failed"
	AuditResetRequested     = "passcode_reset_requested"
	AuditResetSuccess       = "passcode_reset_success"
	AuditResetFailed        = "passcode_reset_failed"
	AuditSessionsRevoked    = "sessions_revoked"
	AuditFingerprintSetting = "require_fingerprint_changed"
	AuditConfigBootstrapped = "config_bootstrapped"
)

// AuditEvent records a security-relevant action. Append-only; this service
// never mutates or deletes rows.
type AuditEvent struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UUID         string    `json:"uuid" gorm:"uniqueIndex"`
	ActorID      string    `json:"actor_id" gorm:"index"`
	Action       string    `json:"action" gorm:"index"`
	ResourceType string    `json:"resource_type" gorm:"default:'security'"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Metadata     string    `json:"metadata" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}
