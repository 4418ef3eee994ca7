package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
)

// VerifyResult is the outcome of one verification attempt. The attempt
// counter and lock window have already been updated by the time it returns.
type VerifyResult struct {
	OK          bool
	Locked      bool
	LockedUntil *time.Time
}

// GetConfig returns the singleton config row.
func (s *Store) GetConfig() (*models.SecurityConfig, error) {
	var cfg models.SecurityConfig
	if err := s.db.Where("name = ?", models.SecurityConfigKey).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// SetPasscode hashes and upserts the passcode in one transaction, creating
// the singleton row if it does not exist yet. Counters and the lock window
// reset. Returns the stored hash.
func (s *Store) SetPasscode(adminEmail, passcode string, bootstrapped bool) (string, error) {
	var storedHash string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		var cfg models.SecurityConfig
		if err := tx.Where("name = ?", models.SecurityConfigKey).First(&cfg).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			cfg = models.SecurityConfig{
				UUID:       uuid.NewString(),
				Name:       models.SecurityConfigKey,
				AdminEmail: adminEmail,
			}
		}

		cfg.PasscodeHash = string(hash)
		cfg.Bootstrapped = bootstrapped
		cfg.FailedAttempts = 0
		cfg.LockedUntil = nil
		if cfg.AdminEmail == "" {
			cfg.AdminEmail = adminEmail
		}

		storedHash = cfg.PasscodeHash
		return tx.Save(&cfg).Error
	})
	if err != nil {
		return "", err
	}
	return storedHash, nil
}

// UpdatePasscode rotates the passcode in one transaction and clears the
// bootstrapped marker. The superseded hash is appended to history inside the
// same transaction so rotation and history never diverge.
func (s *Store) UpdatePasscode(next string) (string, error) {
	var storedHash string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cfg models.SecurityConfig
		if err := tx.Where("name = ?", models.SecurityConfigKey).First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConfigNotFound
			}
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		previous := cfg.PasscodeHash
		cfg.PasscodeHash = string(hash)
		cfg.Bootstrapped = false
		cfg.FailedAttempts = 0
		cfg.LockedUntil = nil
		if err := tx.Save(&cfg).Error; err != nil {
			return err
		}
		storedHash = cfg.PasscodeHash

		if previous == "" {
			return nil
		}
		return tx.Create(&models.PasscodeHistoryEntry{
			UUID:         uuid.NewString(),
			PasscodeHash: previous,
		}).Error
	})
	if err != nil {
		return "", err
	}
	return storedHash, nil
}

// VerifyPasscode compares the submitted passcode against the stored hash and
// updates the failed-attempt counter and lock window atomically. Every
// attempt must go through here; nothing else compares hashes.
func (s *Store) VerifyPasscode(passcode string) (VerifyResult, error) {
	var res VerifyResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var cfg models.SecurityConfig
		if err := tx.Where("name = ?", models.SecurityConfigKey).First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConfigNotFound
			}
			return err
		}

		now := time.Now()
		if cfg.LockedUntil != nil {
			if cfg.LockedUntil.After(now) {
				until := *cfg.LockedUntil
				res = VerifyResult{Locked: true, LockedUntil: &until}
				return nil
			}
			// The window has passed; the attempt below starts a fresh count.
			cfg.FailedAttempts = 0
			cfg.LockedUntil = nil
		}

		if bcrypt.CompareHashAndPassword([]byte(cfg.PasscodeHash), []byte(passcode)) == nil {
			cfg.FailedAttempts = 0
			cfg.LockedUntil = nil
			res = VerifyResult{OK: true}
			return tx.Save(&cfg).Error
		}

		cfg.FailedAttempts++
		if cfg.FailedAttempts >= MaxFailedAttempts {
			until := now.Add(LockoutDuration * time.Minute)
			cfg.LockedUntil = &until
			res = VerifyResult{Locked: true, LockedUntil: &until}
		} else {
			res = VerifyResult{}
		}
		return tx.Save(&cfg).Error
	})
	if err != nil {
		return VerifyResult{}, err
	}
	return res, nil
}

// SetRequireFingerprint flips the fingerprint requirement on the singleton.
func (s *Store) SetRequireFingerprint(required bool) error {
	result := s.db.Model(&models.SecurityConfig{}).
		Where("name = ?", models.SecurityConfigKey).
		Update("require_fingerprint", required)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConfigNotFound
	}
	return nil
}

// AppendHistory records a hash outside a rotation, used to seed history
// after bootstrap. Callers may treat failures as best-effort.
func (s *Store) AppendHistory(hash string) error {
	return s.db.Create(&models.PasscodeHistoryEntry{
		UUID:         uuid.NewString(),
		PasscodeHash: hash,
	}).Error
}

// IsRecentPasscode reports whether the candidate matches the current passcode
// or any of the newest HistoryDepth superseded hashes. Plaintexts are never
// compared; each stored hash is checked individually.
func (s *Store) IsRecentPasscode(candidate string) (bool, error) {
	cfg, err := s.GetConfig()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return false, err
	}
	if cfg != nil && cfg.PasscodeHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(cfg.PasscodeHash), []byte(candidate)) == nil {
		return true, nil
	}

	var entries []models.PasscodeHistoryEntry
	if err := s.db.Order("created_at desc").Order("id desc").
		Limit(HistoryDepth).Find(&entries).Error; err != nil {
		return false, err
	}
	for _, entry := range entries {
		if bcrypt.CompareHashAndPassword([]byte(entry.PasscodeHash), []byte(candidate)) == nil {
			return true, nil
		}
	}
	return false, nil
}
