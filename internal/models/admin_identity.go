package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RoleSuperAdmin is the role carried by the single shared admin identity.
const RoleSuperAdmin = "super_admin"

// AdminIdentity is the one backend-managed account representing the shared
// admin role, keyed by email. It exists so every audit event has an actor,
// even on anonymous flows like reset-code redemption.
type AdminIdentity struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UUID      string    `gorm:"uniqueIndex;not null" json:"uuid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`

	// PasswordHash stays in lockstep with the passcode so the auth layer
	// always accepts the most recently verified credential.
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"default:'super_admin'" json:"role"`
	Verified     bool   `gorm:"default:true" json:"verified"`

	// TokensRevokedAt invalidates every bearer token issued before it.
	TokensRevokedAt *time.Time `json:"-"`
	LastUnlockAt    *time.Time `json:"last_unlock_at,omitempty"`
}

// BeforeCreate generates a UUID for new identities.
func (a *AdminIdentity) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return nil
}

// SetPassword hashes and sets the identity's credential.
func (a *AdminIdentity) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a credential against the stored hash.
func (a *AdminIdentity) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	return err == nil
}

// IsAdmin reports whether the identity carries the super-admin role.
func (a *AdminIdentity) IsAdmin() bool {
	return a.Role == RoleSuperAdmin
}
