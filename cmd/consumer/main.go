package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/nats-io/nats.go"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/consumer"
	"PortfolioCMS/internal/repository"
	"PortfolioCMS/pkg/logger"
)

func main() {
	// Читаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "text").Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format).With("service", "consumer")
	fatal := func(msg string, err error) {
		log.Error(msg, logger.Err(err))
		os.Exit(1)
	}
	if err := cfg.ValidateConsumer(); err != nil {
		fatal("invalid config", err)
	}

	// Подключаемся к NATS
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		fatal("failed to connect to NATS", err)
	}
	defer nc.Close()

	// Подключаемся к ClickHouse
	db, err := sql.Open("clickhouse", cfg.ClickHouse.DSN)
	if err != nil {
		fatal("failed to connect to ClickHouse", err)
	}
	defer func() { _ = db.Close() }()

	// Применяем миграции ClickHouse с помощью golang-migrate
	driver, err := clickhouse.WithInstance(db, &clickhouse.Config{})
	if err != nil {
		fatal("failed to create ClickHouse migrate driver", err)
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.ClickHouse.MigrationsPath, "clickhouse", driver)
	if err != nil {
		fatal("failed to create ClickHouse migrate instance", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fatal("failed to apply ClickHouse migrations", err)
	}

	// Создаём репозиторий и консьюмера
	repo := repository.NewClickhouseRepo(db, log)
	cons := consumer.NewConsumer(repo, cfg.Consumer.BatchSize, log)

	// HTTP-сервер для healthz и readyz
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !nc.IsConnected() {
			writeStatus(w, http.StatusServiceUnavailable, "nats disconnected")
			return
		}
		if err := db.PingContext(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "clickhouse unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	healthSrv := &http.Server{Addr: ":" + cfg.Consumer.Port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("starting health server", "port", cfg.Consumer.Port)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("health server failed", err)
		}
	}()

	// Подписываемся на тему NATS
	sub, err := nc.Subscribe(cfg.NATS.Subject, func(msg *nats.Msg) {
		if err := cons.HandleMessage(context.Background(), msg.Data); err != nil {
			log.Error("failed to handle message", logger.Err(err))
		}
	})
	if err != nil {
		fatal("failed to subscribe to subject "+cfg.NATS.Subject, err)
	}
	// Ждём сигнала завершения
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down consumer...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(ctx); err != nil {
		log.Warn("health server shutdown failed", logger.Err(err))
	}

	// Отписываемся и сбрасываем оставшиеся события
	if err := sub.Unsubscribe(); err != nil {
		log.Warn("failed to unsubscribe", logger.Err(err))
	}
	if err := cons.Flush(ctx); err != nil {
		log.Error("failed to flush consumer events", "lost", cons.Pending(), logger.Err(err))
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
