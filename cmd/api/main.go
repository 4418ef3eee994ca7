package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/abedinmolla2025/noor-admin-gate/internal/config"
	"github.com/abedinmolla2025/noor-admin-gate/internal/database"
	"github.com/abedinmolla2025/noor-admin-gate/internal/logger"
	"github.com/abedinmolla2025/noor-admin-gate/internal/server"
	"github.com/abedinmolla2025/noor-admin-gate/internal/services"
	"github.com/abedinmolla2025/noor-admin-gate/internal/store"
	"github.com/abedinmolla2025/noor-admin-gate/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "logs")
	_ = os.MkdirAll(logDir, 0o755)
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "noorgate.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logger.Init(cfg.Environment == "development", io.MultiWriter(os.Stdout, rotator))

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	// Operator backdoor: set the passcode directly, clearing any lock.
	if len(os.Args) > 1 && os.Args[1] == "reset-passcode" {
		if len(os.Args) != 3 {
			log.Fatalf("Usage: %s reset-passcode <new-passcode>", os.Args[0])
		}
		st := store.New(db)
		hash, err := st.SetPasscode(cfg.AdminEmail, os.Args[2], false)
		if err != nil {
			log.Fatalf("set passcode: %v", err)
		}
		if err := st.AppendHistory(hash); err != nil {
			log.Printf("WARNING: failed to append passcode history: %v", err)
		}
		log.Printf("Passcode updated for %s", cfg.AdminEmail)
		return
	}

	srv, err := server.New(db, cfg)
	if err != nil {
		log.Fatalf("build server: %v", err)
	}

	cleanup := services.NewCleanupService(store.New(db))
	if err := cleanup.Start(); err != nil {
		log.Fatalf("start cleanup scheduler: %v", err)
	}
	defer cleanup.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(map[string]interface{}{
		"version": version.Full(),
		"port":    cfg.HTTPPort,
	}).Infof("starting %s", version.Name)

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
