package main

import (
	"database/sql"
	"fmt"
	"net/http"

	"grooming-service/internal/adapters/auth/sessions"
	pg "grooming-service/internal/adapters/storage/postgres"
	"grooming-service/internal/config"
	"grooming-service/internal/platform/logger"
	"grooming-service/internal/ports/auth"
	"grooming-service/internal/router"
)

// @title Grooming Service API
// @version 1.0
// @description API de agenda y visitas para peluquería de mascotas.
// @BasePath /
func main() {
	cfg := config.Load()

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	var db *sql.DB
	if cfg.DBDSN != "" {
		opened, err := pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("cannot open database", map[string]any{"error": err.Error()})
			return
		}
		db = opened
		defer func() { _ = db.Close() }()
	}

	var verifier auth.AuthVerifier
	if cfg.SessionsBaseURL != "" {
		client, err := sessions.NewClient(sessions.Config{
			BaseURL: cfg.SessionsBaseURL,
			APIKey:  cfg.SessionsAPIKey,
			Timeout: cfg.SessionsTimeout,
		})
		if err != nil {
			log.Error("cannot build sessions client", map[string]any{"error": err.Error()})
			return
		}
		verifier = sessions.NewVerifier(client)
	}

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Logger:       log,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	log.Info("starting server", map[string]any{
		"addr":    addr,
		"storage": storageMode(db),
		"auth":    verifier != nil,
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
	}
}

func storageMode(db *sql.DB) string {
	if db != nil {
		return "postgres"
	}
	return "memory"
}
