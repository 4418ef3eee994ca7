package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/abedinmolla2025/noor-admin-gate/internal/logger"
)

// DefaultMailEndpoint is the transactional provider's send endpoint.
const DefaultMailEndpoint = "https://api.resend.com/emails"

// FallbackSender is retried once when the preferred sender is rejected, so a
// misconfigured custom domain does not strand the recovery flow.
const FallbackSender = "NoorGate <onboarding@resend.dev>"

var ErrMailNotConfigured = errors.New("mail API key not configured")

// Mailer delivers reset codes. GateService depends on this interface so tests
// can capture outgoing mail.
type Mailer interface {
	SendResetCode(to, code string) error
}

// MailService sends email through a transactional HTTP provider.
type MailService struct {
	APIKey   string
	Sender   string
	Endpoint string
	Client   *http.Client
}

// NewMailService returns a MailService. An empty sender uses the provider
// fallback directly.
func NewMailService(apiKey, sender string) *MailService {
	return &MailService{
		APIKey:   apiKey,
		Sender:   sender,
		Endpoint: DefaultMailEndpoint,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

var resetCodeTemplate = template.Must(template.New("reset_code").Parse(`
<div style="font-family: sans-serif; max-width: 480px; margin: 0 auto;">
  <h2>Admin passcode reset</h2>
  <p>Use this code to reset the admin passcode. It expires in 10 minutes.</p>
  <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">{{.Code}}</p>
  <p>If you did not request this, you can ignore this email.</p>
</div>`))

// SendResetCode emails the code to the admin address. If the preferred sender
// fails for any reason, it retries exactly once with the fallback sender
// before surfacing the failure.
func (s *MailService) SendResetCode(to, code string) error {
	if s.APIKey == "" {
		return ErrMailNotConfigured
	}

	var body bytes.Buffer
	if err := resetCodeTemplate.Execute(&body, map[string]string{"Code": code}); err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}

	sender := s.Sender
	if sender == "" {
		sender = FallbackSender
	}

	err := s.send(sender, to, "Your admin passcode reset code", body.String())
	if err != nil && sender != FallbackSender {
		logger.WithFields(map[string]interface{}{"sender": sender}).
			WithError(err).Warn("preferred sender failed, retrying with fallback")
		err = s.send(FallbackSender, to, "Your admin passcode reset code", body.String())
	}
	return err
}

func (s *MailService) send(from, to, subject, html string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"from":    from,
		"to":      []string{to},
		"subject": subject,
		"html":    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("mail provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}
	return nil
}
