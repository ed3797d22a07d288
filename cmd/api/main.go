package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"cardgate/core"
)

func main() {
	cfg := core.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	if cfg.MigrateOnStart {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()
	log.Printf("database connection successful")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := core.NewAuthMetrics(registry)

	backend, closeBackend, err := newSessionBackend(cfg)
	if err != nil {
		log.Fatalf("failed to init session backend: %v", err)
	}
	defer closeBackend()

	store := core.NewServerStore(backend, cfg.SessionMaxAge, []byte(cfg.SessionKey))
	sessionManager := core.NewSessionManager(cfg, store, metrics)

	userRepo := core.NewPgUserRepository(db)
	hasher := core.NewBcryptHasher(cfg.BcryptCost, metrics)
	authService, err := core.NewRepositoryAuthService(userRepo, hasher, metrics)
	if err != nil {
		log.Fatalf("failed to init auth service: %v", err)
	}

	if cfg.SeedUsersPath != "" {
		res, err := core.SeedUsersFromFile(ctx, userRepo, hasher, cfg.SeedUsersPath)
		if err != nil {
			log.Fatalf("seed users failed: %v", err)
		}
		log.Printf("seed users: created=%d skipped=%d", res.Created, res.Skipped)
	}

	router, err := core.NewRouter(cfg, authService, sessionManager, userRepo, registry)
	if err != nil {
		log.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("starting api server on %s (sessions=%s)", srv.Addr, cfg.SessionBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
	log.Printf("server stopped")
}

func runMigrations(databaseURL string) error {
	m, err := core.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil {
		return err
	}
	v, _, err := m.Version()
	if err != nil {
		return err
	}
	log.Printf("schema at version %d", v)
	return nil
}

func newSessionBackend(cfg core.Config) (core.SessionBackend, func(), error) {
	switch cfg.SessionBackend {
	case core.SessionBackendMemory:
		b := core.NewMemorySessionBackend(time.Minute)
		return b, func() { _ = b.Close() }, nil
	default:
		client, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return core.NewRedisSessionBackend(client), func() { _ = client.Close() }, nil
	}
}
