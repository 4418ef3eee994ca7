package store

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
)

// Reset-code policy.
const (
	ResetCodeDigits    = 6
	ResetCodeTTL       = 10 * time.Minute
	ResetScanDepth     = 5
	ResetRequestWindow = 15 * time.Minute
	ResetRequestLimit  = 3
)

// GenerateResetCode produces a zero-padded numeric code from crypto/rand.
func GenerateResetCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < ResetCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", ResetCodeDigits, n), nil
}

func hashResetCode(code, salt string) string {
	sum := sha256.Sum256([]byte(code + salt))
	return hex.EncodeToString(sum[:])
}

// CountRecentResetRequests counts tokens issued to this admin email from the
// given IP inside the throttle window. The token table doubles as the rate
// limit; there is no separate store.
func (s *Store) CountRecentResetRequests(adminEmail, ip string) (int64, error) {
	var count int64
	cutoff := time.Now().Add(-ResetRequestWindow)
	err := s.db.Model(&models.ResetToken{}).
		Where("admin_email = ? AND requested_ip = ? AND created_at > ?", adminEmail, ip, cutoff).
		Count(&count).Error
	return count, err
}

// InvalidateUnusedResetTokens marks every unused token for the admin email as
// used, so at most one redeemable code exists after a new one is issued.
func (s *Store) InvalidateUnusedResetTokens(adminEmail string) error {
	now := time.Now()
	return s.db.Model(&models.ResetToken{}).
		Where("admin_email = ? AND used_at IS NULL", adminEmail).
		Update("used_at", &now).Error
}

// CreateResetToken stores only the salted digest of the code, never the code.
func (s *Store) CreateResetToken(adminEmail, code, ip, requestedBy string) (*models.ResetToken, error) {
	saltBytes := make([]byte, 16)
	if _, err := rand.Read(saltBytes); err != nil {
		return nil, err
	}
	salt := hex.EncodeToString(saltBytes)

	token := &models.ResetToken{
		UUID:            uuid.NewString(),
		AdminEmail:      adminEmail,
		CodeHash:        hashResetCode(code, salt),
		CodeSalt:        salt,
		RequestedIP:     ip,
		RequestedUserID: requestedBy,
		ExpiresAt:       time.Now().Add(ResetCodeTTL),
	}
	if err := s.db.Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// RedeemResetToken scans the newest ResetScanDepth tokens for the admin
// email, recomputing the salted digest for each until one matches. The code
// is not queryable by value since only digests are stored. On a match the
// token is marked used; a nil token means no match.
func (s *Store) RedeemResetToken(adminEmail, code string) (*models.ResetToken, error) {
	var tokens []models.ResetToken
	if err := s.db.Where("admin_email = ?", adminEmail).
		Order("created_at desc").Order("id desc").
		Limit(ResetScanDepth).Find(&tokens).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range tokens {
		token := &tokens[i]
		if !token.Redeemable(now) {
			continue
		}
		if hashResetCode(code, token.CodeSalt) != token.CodeHash {
			continue
		}
		token.UsedAt = &now
		if err := s.db.Save(token).Error; err != nil {
			return nil, err
		}
		return token, nil
	}
	return nil, nil
}

// PurgeDeadResetTokens removes tokens that expired or were used more than a
// day ago. Called by the janitor; redemption never relies on it.
func (s *Store) PurgeDeadResetTokens() (int64, error) {
	cutoff := time.Now().Add(-24 * time.Hour)
	result := s.db.Where("expires_at < ? OR (used_at IS NOT NULL AND used_at < ?)", cutoff, cutoff).
		Delete(&models.ResetToken{})
	return result.RowsAffected, result.Error
}
