package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abedinmolla2025/noor-admin-gate/internal/api/middleware"
	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
	"github.com/abedinmolla2025/noor-admin-gate/internal/services"
)

// GateHandler exposes the passcode service as a single action-dispatch
// endpoint. Handled domain failures answer HTTP 200 with ok:false and a
// stable error code so clients can branch; only infrastructure failures
// produce a 500.
type GateHandler struct {
	configs  *services.ConfigService
	identity *services.IdentityService
	audit    *services.AuditService
	gate     *services.GateService
}

// NewGateHandler wires the handler's services.
func NewGateHandler(configs *services.ConfigService, identity *services.IdentityService, audit *services.AuditService, gate *services.GateService) *GateHandler {
	return &GateHandler{configs: configs, identity: identity, audit: audit, gate: gate}
}

type gateRequest struct {
	Action string `json:"action"`

	Passcode          string `json:"passcode"`
	DeviceFingerprint string `json:"device_fingerprint"`

	CurrentPasscode string `json:"current_passcode"`
	NewPasscode     string `json:"new_passcode"`

	Code string `json:"code"`

	RequireFingerprint *bool  `json:"require_fingerprint"`
	ActionName         string `json:"action_name"`
}

func corsHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "authorization, content-type")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
}

// Preflight answers CORS preflight requests with permissive headers.
func (h *GateHandler) Preflight(c *gin.Context) {
	corsHeaders(c)
	c.Status(http.StatusOK)
}

func fail(c *gin.Context, reason string) {
	c.JSON(http.StatusOK, gin.H{"ok": false, "error": reason})
}

func fatal(c *gin.Context, err error) {
	middleware.GetRequestLogger(c).WithError(err).Error("admin gate request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
}

// requireAdmin introspects the bearer token and checks the admin capability.
// Either failure answers not_authorized without hinting which check failed.
func (h *GateHandler) requireAdmin(c *gin.Context) *models.AdminIdentity {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		fail(c, "not_authorized")
		return nil
	}
	identity, err := h.identity.Introspect(strings.TrimPrefix(header, "Bearer "))
	if err != nil || !identity.IsAdmin() {
		fail(c, "not_authorized")
		return nil
	}
	return identity
}

// Handle dispatches one inbound action.
func (h *GateHandler) Handle(c *gin.Context) {
	corsHeaders(c)

	var req gateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, "invalid_request")
		return
	}

	switch req.Action {
	case "get_config":
		h.getConfig(c)
	case "log_event":
		h.logEvent(c, req)
	case "set_require_fingerprint":
		h.setRequireFingerprint(c, req)
	case "unlock":
		h.unlock(c, req)
	case "change_passcode":
		h.changePasscode(c, req)
	case "revoke_sessions":
		h.revokeSessions(c)
	case "history":
		h.history(c)
	case "request_reset_code":
		h.requestResetCode(c)
	case "reset_passcode_with_code":
		h.resetPasscodeWithCode(c, req)
	default:
		fail(c, "unknown_action")
	}
}

func (h *GateHandler) getConfig(c *gin.Context) {
	cfg, _, err := h.configs.EnsureConfig()
	if err != nil {
		fatal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":                  true,
		"require_fingerprint": cfg.RequireFingerprint,
		"bootstrapped":        cfg.Bootstrapped,
	})
}

func (h *GateHandler) logEvent(c *gin.Context, req gateRequest) {
	if req.ActionName == "" {
		fail(c, "invalid_request")
		return
	}
	identity, err := h.identity.EnsureAdminIdentity("")
	if err != nil {
		fatal(c, err)
		return
	}
	h.audit.Log(identity.UUID, req.ActionName, map[string]interface{}{"ip": c.ClientIP()})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *GateHandler) setRequireFingerprint(c *gin.Context, req gateRequest) {
	actor := h.requireAdmin(c)
	if actor == nil {
		return
	}
	if req.RequireFingerprint == nil {
		fail(c, "invalid_request")
		return
	}
	if err := h.configs.SetRequireFingerprint(*req.RequireFingerprint); err != nil {
		fatal(c, err)
		return
	}
	h.audit.Log(actor.UUID, models.AuditFingerprintSetting, map[string]interface{}{
		"require_fingerprint": *req.RequireFingerprint, "ip": c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *GateHandler) unlock(c *gin.Context, req gateRequest) {
	res, err := h.gate.Unlock(req.Passcode, req.DeviceFingerprint, c.ClientIP())
	if err != nil {
		fatal(c, err)
		return
	}
	if !res.OK {
		body := gin.H{"ok": false, "error": res.Reason}
		if res.LockedUntil != nil {
			body["locked_until"] = *res.LockedUntil
		}
		c.JSON(http.StatusOK, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "admin_email": res.AdminEmail, "token": res.Token})
}

func (h *GateHandler) changePasscode(c *gin.Context, req gateRequest) {
	actor := h.requireAdmin(c)
	if actor == nil {
		return
	}
	res, err := h.gate.ChangePasscode(actor, req.CurrentPasscode, req.NewPasscode, c.ClientIP())
	if err != nil {
		fatal(c, err)
		return
	}
	if !res.OK {
		fail(c, res.Reason)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *GateHandler) revokeSessions(c *gin.Context) {
	actor := h.requireAdmin(c)
	if actor == nil {
		return
	}
	if err := h.identity.RevokeSessions(); err != nil {
		fatal(c, err)
		return
	}
	h.audit.Log(actor.UUID, models.AuditSessionsRevoked, map[string]interface{}{"ip": c.ClientIP()})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *GateHandler) history(c *gin.Context) {
	if h.requireAdmin(c) == nil {
		return
	}
	events, err := h.audit.History(50)
	if err != nil {
		fatal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "events": events})
}

func (h *GateHandler) requestResetCode(c *gin.Context) {
	res, err := h.gate.RequestResetCode(c.ClientIP(), "")
	if err != nil {
		fatal(c, err)
		return
	}
	if !res.OK {
		fail(c, res.Reason)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "to": res.To})
}

func (h *GateHandler) resetPasscodeWithCode(c *gin.Context, req gateRequest) {
	res, err := h.gate.ResetPasscodeWithCode(req.Code, req.NewPasscode, c.ClientIP())
	if err != nil {
		fatal(c, err)
		return
	}
	if !res.OK {
		fail(c, res.Reason)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "revoked": res.Revoked})
}
