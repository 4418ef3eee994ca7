package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abedinmolla2025/noor-admin-gate/internal/logger"
	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
)

// AuditService appends immutable security events. Writes complete before the
// action handler returns, but a failed write never blocks the response.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService returns an AuditService using the provided DB.
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log appends one audit row. Marshal or write failures are logged and
// swallowed; the primary action already happened and must still respond.
func (s *AuditService) Log(actorID, action string, metadata map[string]interface{}) {
	payload := ""
	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			logger.WithFields(map[string]interface{}{"action": action}).
				WithError(err).Warn("failed to marshal audit metadata")
		} else {
			payload = string(raw)
		}
	}

	event := models.AuditEvent{
		UUID:         uuid.NewString(),
		ActorID:      actorID,
		Action:       action,
		ResourceType: "security",
		Metadata:     payload,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(&event).Error; err != nil {
		logger.WithFields(map[string]interface{}{"action": action}).
			WithError(err).Error("failed to write audit event")
	}
}

// History returns recent audit events, newest first.
func (s *AuditService) History(limit int) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	q := s.db.Order("created_at desc").Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
