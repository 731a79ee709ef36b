package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	nats "github.com/nats-io/nats.go"

	"PortfolioCMS/internal/auth"
	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/repository"
	"PortfolioCMS/internal/service"
	externalHttp "PortfolioCMS/internal/transport/http"
	"PortfolioCMS/pkg/cache"
	"PortfolioCMS/pkg/events"
	"PortfolioCMS/pkg/logger"
)

func main() {
	// читаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	fatal := func(msg string, err error) {
		log.Error(msg, logger.Err(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fatal("invalid config", err)
	}

	// подключаем Postgres
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		fatal("failed to connect to Postgres", err)
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		fatal("failed to ping Postgres", err)
	}

	// Применяем миграции Postgres с помощью golang-migrate
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		fatal("failed to create migrate driver", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.Database.MigrationsPath, "postgres", driver)
	if err != nil {
		fatal("failed to create migrate instance", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fatal("failed to apply migrations", err)
	}

	// подключаем Redis: один клиент для кэша и сессий
	rClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	cacheClient := cache.Wrap(rClient)
	sessions := auth.NewSessionStore(rClient, cfg.Redis.SessionTTL)

	// подключаем NATS
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		fatal("failed to connect to NATS", err)
	}
	publisher := events.NewPublisher(nc, cfg.NATS.Subject)

	// создаем репозитории и сервисы
	projects := service.NewProjectsService(repository.NewProjectRepository(db), cacheClient, publisher, log, cfg.Redis.TTL)
	education := service.NewEducationService(repository.NewEducationRepository(db), cacheClient, publisher, log, cfg.Redis.TTL)
	reorder := service.NewReorderService(repository.NewOrderRepository(db), cacheClient, publisher, log, service.ReorderOptions{
		Concurrency: cfg.Reorder.Concurrency,
		Atomic:      cfg.Reorder.Atomic,
	})
	settings := service.NewSettingsService(repository.NewSettingsRepository(db), cacheClient, publisher, log, cfg.Redis.TTL)
	authenticator := auth.NewAuthenticator(cfg.Auth.AdminEmail, cfg.Auth.AdminPasswordHash, sessions)

	// настраиваем HTTP маршруты и middleware логирования
	r := mux.NewRouter()
	r.Use(externalHttp.LoggingMiddleware(log))
	h := externalHttp.NewHandler(externalHttp.Deps{
		Collections: []externalHttp.CollectionService{projects, education},
		Reorder:     reorder,
		Settings:    settings,
		Auth:        authenticator,
		Log:         log,
		Ready: map[string]externalHttp.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    cacheClient.Ping,
		},
	})
	h.RegisterRoutes(r)

	// запускаем HTTP сервер с поддержкой graceful shutdown
	srvHttp := &http.Server{Addr: cfg.HTTP.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("starting server", "addr", cfg.HTTP.Addr, "reorder_atomic", cfg.Reorder.Atomic)
		if err := srvHttp.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()
	// ожидаем сигнал для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srvHttp.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", logger.Err(err))
	}
	log.Info("server exited properly")
	if err := cacheClient.Close(); err != nil {
		log.Warn("failed to close Redis client", logger.Err(err))
	}
	// корректно дренируем и закрываем NATS-соединение
	if err := nc.Drain(); err != nil {
		log.Warn("failed to drain NATS connection", logger.Err(err))
	}
	nc.Close()
}
