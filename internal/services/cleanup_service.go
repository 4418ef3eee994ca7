package services

import (
	"github.com/robfig/cron/v3"

	"github.com/abedinmolla2025/noor-admin-gate/internal/logger"
	"github.com/abedinmolla2025/noor-admin-gate/internal/store"
)

// CleanupService periodically purges dead reset tokens. Redemption never
// depends on it; it only keeps the token table from growing without bound.
type CleanupService struct {
	store *store.Store
	cron  *cron.Cron
}

// NewCleanupService returns an unstarted CleanupService.
func NewCleanupService(st *store.Store) *CleanupService {
	return &CleanupService{store: st, cron: cron.New()}
}

// Start schedules the purge every 30 minutes and runs it once immediately.
func (s *CleanupService) Start() error {
	if _, err := s.cron.AddFunc("@every 30m", s.purge); err != nil {
		return err
	}
	s.cron.Start()
	go s.purge()
	return nil
}

// Stop halts the scheduler.
func (s *CleanupService) Stop() {
	s.cron.Stop()
}

func (s *CleanupService) purge() {
	removed, err := s.store.PurgeDeadResetTokens()
	if err != nil {
		logger.Log().WithError(err).Warn("reset token purge failed")
		return
	}
	if removed > 0 {
		logger.WithFields(map[string]interface{}{"removed": removed}).
			Debug("purged dead reset tokens")
	}
}
