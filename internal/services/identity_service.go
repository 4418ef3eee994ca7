package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

const tokenTTL = 24 * time.Hour

// IdentityService manages the single backend identity for the shared admin
// role and the bearer tokens tied to it.
type IdentityService struct {
	db         *gorm.DB
	adminEmail string
	secret     []byte
}

// NewIdentityService returns an IdentityService for the configured admin email.
func NewIdentityService(db *gorm.DB, adminEmail, serviceSecret string) *IdentityService {
	return &IdentityService{db: db, adminEmail: adminEmail, secret: []byte(serviceSecret)}
}

// EnsureAdminIdentity looks up the admin identity by email, creating it
// pre-verified if absent. A non-empty passwordToSync updates the credential
// so the auth layer stays in lockstep with the passcode; the update is
// idempotent and safe on every unlock.
func (s *IdentityService) EnsureAdminIdentity(passwordToSync string) (*models.AdminIdentity, error) {
	var identity models.AdminIdentity
	err := s.db.Where("email = ?", s.adminEmail).First(&identity).Error
	if err == nil {
		if passwordToSync != "" {
			if err := identity.SetPassword(passwordToSync); err != nil {
				return nil, err
			}
			if err := s.db.Save(&identity).Error; err != nil {
				return nil, err
			}
		}
		return &identity, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	credential := passwordToSync
	if credential == "" {
		random := make([]byte, 24)
		if _, err := rand.Read(random); err != nil {
			return nil, err
		}
		credential = hex.EncodeToString(random)
	}

	identity = models.AdminIdentity{
		Email:    s.adminEmail,
		Name:     "Admin",
		Role:     models.RoleSuperAdmin,
		Verified: true,
	}
	if err := identity.SetPassword(credential); err != nil {
		return nil, err
	}
	if err := s.db.Create(&identity).Error; err != nil {
		return nil, fmt.Errorf("create admin identity: %w", err)
	}
	return &identity, nil
}

// TouchUnlock stamps the identity's last successful unlock.
func (s *IdentityService) TouchUnlock(identity *models.AdminIdentity) error {
	now := time.Now()
	identity.LastUnlockAt = &now
	return s.db.Save(identity).Error
}

type tokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a bearer token for the admin identity.
func (s *IdentityService) IssueToken(identity *models.AdminIdentity) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Introspect validates a bearer token and resolves its identity. Tokens
// issued before the identity's revocation stamp are rejected, which is how
// revoke_sessions forces a re-login.
func (s *IdentityService) Introspect(tokenString string) (*models.AdminIdentity, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	var identity models.AdminIdentity
	if err := s.db.Where("uuid = ?", claims.Subject).First(&identity).Error; err != nil {
		return nil, ErrInvalidToken
	}
	// iat carries second precision, so truncate the revocation stamp before
	// comparing; tokens issued in the same second as the revocation survive.
	if identity.TokensRevokedAt != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(identity.TokensRevokedAt.Truncate(time.Second)) {
		return nil, ErrInvalidToken
	}
	return &identity, nil
}

// RevokeSessions invalidates every outstanding token for the admin identity.
func (s *IdentityService) RevokeSessions() error {
	identity, err := s.EnsureAdminIdentity("")
	if err != nil {
		return err
	}
	now := time.Now()
	identity.TokensRevokedAt = &now
	return s.db.Save(identity).Error
}
