package services

import (
	"fmt"
	"strings"

	"github.com/containrrr/shoutrrr"

	"github.com/abedinmolla2025/noor-admin-gate/internal/logger"
)

// NotificationService pushes security alerts (lockouts, resets) to external
// channels through shoutrrr URLs. Delivery is best-effort; it never affects
// the outcome of the action that triggered it.
type NotificationService struct {
	urls []string
}

// NewNotificationService parses a comma-separated list of shoutrrr URLs.
func NewNotificationService(rawURLs string) *NotificationService {
	var urls []string
	for _, u := range strings.Split(rawURLs, ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}
	return &NotificationService{urls: urls}
}

// SendAlert fans out a security alert to every configured channel.
func (s *NotificationService) SendAlert(title, message string) {
	if len(s.urls) == 0 {
		return
	}
	body := fmt.Sprintf("%s\n%s", title, message)
	for _, url := range s.urls {
		go func(u string) {
			if err := shoutrrr.Send(u, body); err != nil {
				logger.Log().WithError(err).Warn("failed to send security alert")
			}
		}(url)
	}
}
