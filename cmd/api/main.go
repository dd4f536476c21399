package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/attendance"
	"attendance-portal/internal/config"
	"attendance-portal/internal/handler"
	"attendance-portal/internal/httpmiddleware"
	"attendance-portal/internal/roster"
	"attendance-portal/internal/store"
	"attendance-portal/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := store.Open(startCtx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(context.Background()) }()
	log.Printf("store backend: %s", cfg.StoreBackend)

	checks := map[string]handler.Pinger{"db": db}

	var limiter httpmiddleware.Limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	if cfg.RedisAddr != "" {
		rdb, err := store.OpenRedis(startCtx, cfg.RedisAddr)
		if err != nil {
			log.Printf("warning: %v, using in-memory rate limiter", err)
		} else {
			defer rdb.Close()
			limiter = httpmiddleware.NewRedisWindow(rdb.Client, cfg.RateLimitPerMin)
			checks["redis"] = rdb
		}
	}

	dateKey, err := attendance.ParseDateKey(cfg.DateKey)
	if err != nil {
		return err
	}

	userSvc := users.NewService(db, 0)
	created, err := userSvc.EnsureAdmin(startCtx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	switch {
	case err != nil:
		log.Printf("warning: admin bootstrap: %v", err)
	case created:
		log.Printf("admin user created: %s", cfg.AdminUsername)
	}

	h := &handler.Handler{
		Users:         userSvc,
		Roster:        roster.NewService(db),
		Attendance:    attendance.NewService(db, dateKey),
		Checks:        checks,
		JWTSigningKey: cfg.JWTSigningKey,
		JWTIssuer:     cfg.JWTIssuer,
		AccessTTL:     cfg.AccessTTL,
	}
	r := handler.NewRouter(h, handler.RouterOptions{
		CORSOrigins:    cfg.CORSOrigins,
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (date key: %s)", cfg.HTTPPort, dateKey)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
