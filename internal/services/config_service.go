package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/abedinmolla2025/noor-admin-gate/internal/logger"
	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
	"github.com/abedinmolla2025/noor-admin-gate/internal/store"
)

// ConfigService guarantees the singleton security config exists before any
// other responsibility runs.
type ConfigService struct {
	store      *store.Store
	adminEmail string
}

// NewConfigService returns a ConfigService bound to the configured admin email.
func NewConfigService(st *store.Store, adminEmail string) *ConfigService {
	return &ConfigService{store: st, adminEmail: adminEmail}
}

// EnsureConfig returns the singleton config, creating it on first run with a
// random undisclosed passcode. After it returns, a config row with a non-nil
// hash always exists. Database errors are fatal for the whole request; the
// upsert is atomic so there is no partial state to recover from.
func (s *ConfigService) EnsureConfig() (*models.SecurityConfig, bool, error) {
	cfg, err := s.store.GetConfig()
	if err == nil && cfg.PasscodeHash != "" {
		return cfg, false, nil
	}
	if err != nil && !errors.Is(err, store.ErrConfigNotFound) {
		return nil, false, err
	}

	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, false, err
	}

	hash, err := s.store.SetPasscode(s.adminEmail, hex.EncodeToString(random), true)
	if err != nil {
		// A concurrent caller may have won the upsert race on the unique
		// config row; if a usable config exists now, use it.
		if cfg, readErr := s.store.GetConfig(); readErr == nil && cfg.PasscodeHash != "" {
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("bootstrap security config: %w", err)
	}

	// History seeding is best-effort. A miss only means the random
	// bootstrap value could in principle be reused later, which is harmless.
	if err := s.store.AppendHistory(hash); err != nil {
		logger.Log().WithError(err).Warn("failed to seed passcode history after bootstrap")
	}

	cfg, err = s.store.GetConfig()
	if err != nil {
		return nil, false, err
	}
	return cfg, true, nil
}

// SetRequireFingerprint toggles the device-fingerprint requirement.
func (s *ConfigService) SetRequireFingerprint(required bool) error {
	if _, _, err := s.EnsureConfig(); err != nil {
		return err
	}
	return s.store.SetRequireFingerprint(required)
}
