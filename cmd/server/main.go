package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/grishakov/marketplace/internal/catalog"
	"github.com/grishakov/marketplace/internal/config"
	"github.com/grishakov/marketplace/internal/es"
	"github.com/grishakov/marketplace/internal/handlers"
	"github.com/grishakov/marketplace/internal/logging"
	"github.com/grishakov/marketplace/internal/mykafka"
	"github.com/grishakov/marketplace/internal/notify"
	"github.com/grishakov/marketplace/internal/service/token"
	httpserver "github.com/grishakov/marketplace/internal/transport/http"
)

const listingsIndex = "listings"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)
	slog.SetDefault(logger)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	}

	var notifier notify.Notifier = notify.Noop{}
	if configuration.SMTP_HOST != "" {
		notifier = notify.NewEmailNotifier(configuration)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		esClient = nil
	}

	tokens := &token.Service{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}
	importer := &catalog.Importer{DB: db, ES: esClient, Index: listingsIndex}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:     db,
		Tokens: tokens,
		AuthHandler: &handlers.AuthHandler{
			DB: db, Tokens: tokens, Producer: producer, Notifier: notifier,
		},
		PasswordHandler: &handlers.PasswordHandler{DB: db, Notifier: notifier},
		ContactHandler:  &handlers.ContactHandler{DB: db},
		PartnerHandler: &handlers.PartnerHandler{
			DB: db, Importer: importer, Producer: producer, Notifier: notifier,
		},
		MarketHandler: &handlers.MarketHandler{DB: db, ES: esClient, Index: listingsIndex},
		BasketHandler: &handlers.BasketHandler{DB: db, Producer: producer},
		OrderHandler:  &handlers.OrderHandler{DB: db, Producer: producer, Notifier: notifier},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := producer.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
