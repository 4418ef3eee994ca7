package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/abedinmolla2025/noor-admin-gate/internal/api/handlers"
	"github.com/abedinmolla2025/noor-admin-gate/internal/api/middleware"
	"github.com/abedinmolla2025/noor-admin-gate/internal/config"
	"github.com/abedinmolla2025/noor-admin-gate/internal/metrics"
	"github.com/abedinmolla2025/noor-admin-gate/internal/models"
	"github.com/abedinmolla2025/noor-admin-gate/internal/services"
	"github.com/abedinmolla2025/noor-admin-gate/internal/store"
	"github.com/abedinmolla2025/noor-admin-gate/internal/version"
)

// Register wires up API routes and performs automatic migrations.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) error {
	if err := db.AutoMigrate(
		&models.SecurityConfig{},
		&models.PasscodeHistoryEntry{},
		&models.ResetToken{},
		&models.AdminIdentity{},
		&models.AuditEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	router.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery(cfg.Environment == "development"))

	st := store.New(db)
	configService := services.NewConfigService(st, cfg.AdminEmail)
	identityService := services.NewIdentityService(db, cfg.AdminEmail, cfg.ServiceSecret)
	auditService := services.NewAuditService(db)
	mailService := services.NewMailService(cfg.MailAPIKey, cfg.MailSender)
	notificationService := services.NewNotificationService(cfg.NotifyURLs)
	gateService := services.NewGateService(st, configService, identityService, auditService, mailService, notificationService)

	gateHandler := handlers.NewGateHandler(configService, identityService, auditService, gateService)

	router.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": version.Full()})
	})

	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.POST("/api/v1/admin-gate", gateHandler.Handle)
	router.OPTIONS("/api/v1/admin-gate", gateHandler.Preflight)

	return nil
}
