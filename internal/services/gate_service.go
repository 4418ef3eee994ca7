package services

import (
	"fmt"
	"regexp"
	"time"

	"github.com/abedinmolla2025/noor-admin-gate/internal/logger"
	"github.com/abedinmolla2025/noor-admin-gate/internal/metrics"
	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
	"github.com/abedinmolla2025/noor-admin-gate/internal/store"
)

// Stable reason codes returned to clients on handled failures.
const (
	ReasonSetupRequired        = "setup_required"
	ReasonFingerprintRequired  = "fingerprint_required"
	ReasonInvalidPasscode      = "invalid_passcode"
	ReasonLocked               = "locked"
	ReasonWeakPasscode         = "weak_passcode"
	ReasonInvalidCurrent       = "invalid_current"
	ReasonPasscodeReused       = "passcode_reused"
	ReasonTooManyRequests      = "too_many_requests"
	ReasonEmailSendFailed      = "email_send_failed"
	ReasonInvalidCode          = "invalid_code"
	ReasonInvalidOrExpiredCode = "invalid_or_expired_code"
)

// Passcode strength bounds.
const (
	MinPasscodeLength = 6
	MaxPasscodeLength = 128
)

var resetCodePattern = regexp.MustCompile(`^\d{6}$`)

// UnlockResult is the outcome of an unlock attempt.
type UnlockResult struct {
	OK          bool
	Reason      string
	AdminEmail  string
	Token       string
	LockedUntil *string
}

// RotateResult is the outcome of a passcode change or reset.
type RotateResult struct {
	OK      bool
	Reason  string
	Revoked bool
}

// ResetRequestResult is the outcome of a reset-code request.
type ResetRequestResult struct {
	OK     bool
	Reason string
	To     string
}

// GateService orchestrates the passcode gate: verification, rotation and the
// reset-code recovery path. All hash handling is delegated to the store.
type GateService struct {
	store    *store.Store
	configs  *ConfigService
	identity *IdentityService
	audit    *AuditService
	mailer   Mailer
	notify   *NotificationService
}

// NewGateService wires the gate's collaborators.
func NewGateService(st *store.Store, configs *ConfigService, identity *IdentityService, audit *AuditService, mailer Mailer, notify *NotificationService) *GateService {
	return &GateService{
		store:    st,
		configs:  configs,
		identity: identity,
		audit:    audit,
		mailer:   mailer,
		notify:   notify,
	}
}

// actorID resolves the audit actor, falling back to the admin identity so
// anonymous flows still produce attributable events.
func (s *GateService) actorID() string {
	identity, err := s.identity.EnsureAdminIdentity("")
	if err != nil {
		logger.Log().WithError(err).Warn("failed to resolve audit actor")
		return "system"
	}
	return identity.UUID
}

// Unlock validates a submitted passcode against the stored hash through the
// store's atomic verify operation. The fingerprint precondition and the
// bootstrapped short-circuit both run before verification so neither burns a
// lockout attempt.
func (s *GateService) Unlock(passcode, fingerprint, ip string) (UnlockResult, error) {
	cfg, _, err := s.configs.EnsureConfig()
	if err != nil {
		return UnlockResult{}, err
	}

	if cfg.Bootstrapped {
		s.audit.Log(s.actorID(), models.AuditUnlockFailed, map[string]interface{}{
			"reason": ReasonSetupRequired, "ip": ip,
		})
		metrics.IncUnlockAttempt(ReasonSetupRequired)
		return UnlockResult{Reason: ReasonSetupRequired}, nil
	}

	if cfg.RequireFingerprint && fingerprint == "" {
		s.audit.Log(s.actorID(), models.AuditUnlockFailed, map[string]interface{}{
			"reason": ReasonFingerprintRequired, "ip": ip,
		})
		metrics.IncUnlockAttempt(ReasonFingerprintRequired)
		return UnlockResult{Reason: ReasonFingerprintRequired}, nil
	}

	// Sync the auth-layer credential to the submitted passcode before
	// verifying, so on success the credential used for sign-in always
	// matches the passcode that was just accepted.
	identity, err := s.identity.EnsureAdminIdentity(passcode)
	if err != nil {
		return UnlockResult{}, err
	}

	res, err := s.store.VerifyPasscode(passcode)
	if err != nil {
		// The verify operation is atomic; a failure here is systemic.
		return UnlockResult{}, fmt.Errorf("verify passcode: %w", err)
	}

	if res.OK {
		if err := s.identity.TouchUnlock(identity); err != nil {
			logger.Log().WithError(err).Warn("failed to stamp last unlock")
		}
		token, err := s.identity.IssueToken(identity)
		if err != nil {
			return UnlockResult{}, err
		}
		s.audit.Log(identity.UUID, models.AuditUnlockSuccess, map[string]interface{}{
			"ip": ip, "fingerprint": fingerprint,
		})
		metrics.IncUnlockAttempt("success")
		return UnlockResult{OK: true, AdminEmail: cfg.AdminEmail, Token: token}, nil
	}

	reason := ReasonInvalidPasscode
	var lockedUntil *string
	if res.Locked {
		reason = ReasonLocked
		formatted := res.LockedUntil.UTC().Format(time.RFC3339)
		lockedUntil = &formatted
		metrics.IncLockout()
		s.notify.SendAlert("Admin gate locked",
			fmt.Sprintf("Too many failed unlock attempts from %s; locked until %s", ip, formatted))
	}
	s.audit.Log(identity.UUID, models.AuditUnlockFailed, map[string]interface{}{
		"reason": reason, "ip": ip, "locked_until": lockedUntil,
	})
	metrics.IncUnlockAttempt(reason)
	return UnlockResult{Reason: reason, LockedUntil: lockedUntil}, nil
}

func validPasscode(passcode string) bool {
	return len(passcode) >= MinPasscodeLength && len(passcode) <= MaxPasscodeLength
}

// ChangePasscode rotates the passcode for an authenticated admin. The current
// passcode goes through the same atomic verify operation as unlock, reusing
// its lockout bookkeeping.
func (s *GateService) ChangePasscode(actor *models.AdminIdentity, current, next, ip string) (RotateResult, error) {
	if _, _, err := s.configs.EnsureConfig(); err != nil {
		return RotateResult{}, err
	}

	if !validPasscode(next) {
		return RotateResult{Reason: ReasonWeakPasscode}, nil
	}

	res, err := s.store.VerifyPasscode(current)
	if err != nil {
		return RotateResult{}, fmt.Errorf("verify current passcode: %w", err)
	}
	if !res.OK {
		s.audit.Log(actor.UUID, models.AuditChangeFailed, map[string]interface{}{
			"reason": ReasonInvalidCurrent, "ip": ip,
		})
		return RotateResult{Reason: ReasonInvalidCurrent}, nil
	}

	return s.rotate(actor.UUID, next, ip, false)
}

// rotate applies the shared reuse check and persistence for both entry
// points. revokeSessions is set only on the recovery path.
func (s *GateService) rotate(actorID, next, ip string, revokeSessions bool) (RotateResult, error) {
	reused, err := s.store.IsRecentPasscode(next)
	if err != nil {
		return RotateResult{}, err
	}
	if reused {
		return RotateResult{Reason: ReasonPasscodeReused}, nil
	}

	if _, err := s.store.UpdatePasscode(next); err != nil {
		return RotateResult{}, fmt.Errorf("update passcode: %w", err)
	}
	if _, err := s.identity.EnsureAdminIdentity(next); err != nil {
		return RotateResult{}, err
	}

	if revokeSessions {
		if err := s.identity.RevokeSessions(); err != nil {
			return RotateResult{}, err
		}
		s.audit.Log(actorID, models.AuditResetSuccess, map[string]interface{}{"ip": ip})
		s.notify.SendAlert("Admin passcode reset", "The admin passcode was reset via emailed code; all sessions revoked")
	} else {
		s.audit.Log(actorID, models.AuditPasscodeChanged, map[string]interface{}{"ip": ip})
	}
	metrics.IncRotation()
	return RotateResult{OK: true, Revoked: revokeSessions}, nil
}

// RequestResetCode issues a time-limited one-time code and emails it to the
// admin address. Previously unused codes are invalidated first, so at most
// one redeemable code exists at a time.
func (s *GateService) RequestResetCode(ip, requestedBy string) (ResetRequestResult, error) {
	cfg, _, err := s.configs.EnsureConfig()
	if err != nil {
		return ResetRequestResult{}, err
	}
	actor := s.actorID()

	count, err := s.store.CountRecentResetRequests(cfg.AdminEmail, ip)
	if err != nil {
		return ResetRequestResult{}, err
	}
	if count >= store.ResetRequestLimit {
		s.audit.Log(actor, models.AuditResetFailed, map[string]interface{}{
			"reason": ReasonTooManyRequests, "ip": ip,
		})
		return ResetRequestResult{Reason: ReasonTooManyRequests}, nil
	}

	if err := s.store.InvalidateUnusedResetTokens(cfg.AdminEmail); err != nil {
		return ResetRequestResult{}, err
	}

	code, err := store.GenerateResetCode()
	if err != nil {
		return ResetRequestResult{}, err
	}
	if _, err := s.store.CreateResetToken(cfg.AdminEmail, code, ip, requestedBy); err != nil {
		return ResetRequestResult{}, err
	}

	if err := s.mailer.SendResetCode(cfg.AdminEmail, code); err != nil {
		logger.Log().WithError(err).Error("failed to send reset code email")
		s.audit.Log(actor, models.AuditResetFailed, map[string]interface{}{
			"reason": ReasonEmailSendFailed, "ip": ip,
		})
		return ResetRequestResult{Reason: ReasonEmailSendFailed}, nil
	}

	s.audit.Log(actor, models.AuditResetRequested, map[string]interface{}{"ip": ip})
	metrics.IncResetRequest()
	return ResetRequestResult{OK: true, To: cfg.AdminEmail}, nil
}

// ResetPasscodeWithCode redeems an emailed code and rotates the passcode
// without requiring the current one. All active sessions are revoked so the
// admin must sign in again with the new passcode.
func (s *GateService) ResetPasscodeWithCode(code, next, ip string) (RotateResult, error) {
	cfg, _, err := s.configs.EnsureConfig()
	if err != nil {
		return RotateResult{}, err
	}
	actor := s.actorID()

	if !resetCodePattern.MatchString(code) {
		s.audit.Log(actor, models.AuditResetFailed, map[string]interface{}{
			"reason": ReasonInvalidCode, "ip": ip,
		})
		return RotateResult{Reason: ReasonInvalidCode}, nil
	}
	token, err := s.store.RedeemResetToken(cfg.AdminEmail, code)
	if err != nil {
		return RotateResult{}, err
	}
	if token == nil {
		s.audit.Log(actor, models.AuditResetFailed, map[string]interface{}{
			"reason": ReasonInvalidOrExpiredCode, "ip": ip,
		})
		return RotateResult{Reason: ReasonInvalidOrExpiredCode}, nil
	}

	// The strength check runs after redemption, so a rejected passcode still
	// consumes the code and the admin must request a fresh one.
	if !validPasscode(next) {
		s.audit.Log(actor, models.AuditResetFailed, map[string]interface{}{
			"reason": ReasonWeakPasscode, "ip": ip,
		})
		return RotateResult{Reason: ReasonWeakPasscode}, nil
	}

	return s.rotate(actor, next, ip, true)
}
