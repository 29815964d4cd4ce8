package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"clozet/internal/app/policies"
	messagingsvc "clozet/internal/app/services/messaging"
	domainmessaging "clozet/internal/domain/messaging"
	"clozet/internal/infra/broker/kafka"
	"clozet/internal/infra/config"
	mongodb "clozet/internal/infra/db/mongo"
	"clozet/internal/infra/db/scylla"
	ginserver "clozet/internal/infra/http/gin"
	"clozet/internal/infra/identity"
	"clozet/internal/infra/obs"
	"clozet/internal/infra/storage/memory"
	"clozet/internal/infra/ws"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.MessagesStore = "memory"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	repo, ready, err := buildMessageStore(cfg, logger)
	if err != nil {
		logger.Error("message store init failed", "error", err, "store", cfg.MessagesStore)
		os.Exit(1)
	}

	service := &messagingsvc.Service{Repo: repo, Logger: logger}
	hub := ws.NewHub(service, logger)
	go hub.Run(ctx)

	notifiers := policies.MultiNotifier{ws.Notifier{Hub: hub}}
	if producer := buildProducer(cfg, logger); producer != nil {
		defer producer.Close()
		notifiers = append(notifiers, &kafka.EventNotifier{
			Producer:    producer,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Logger:      logger,
		})
	}
	service.Notifier = notifiers

	auth := ginserver.AuthMiddleware{
		Resolver: identity.StaticResolver{Tokens: cfg.AuthTokens},
		Logger:   logger,
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: ready,
	}, ginserver.Handlers{
		Messages:       ginserver.MessageHandler{Service: service, Logger: logger},
		Conversations:  ginserver.ConversationHandler{Service: service, Logger: logger},
		WebSocket:      hub.HandleWebSocket,
		AuthMiddleware: auth.Handle,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store", cfg.MessagesStore)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

func buildMessageStore(cfg config.Config, logger *slog.Logger) (domainmessaging.Repository, func() error, error) {
	switch cfg.MessagesStore {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		ready := func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		return mongodb.NewMessageRepository(client.DB), ready, nil
	case "scylla":
		session, err := scylla.NewSession(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		ready := func() error {
			if session.Closed() {
				return errors.New("scylla session closed")
			}
			return nil
		}
		return scylla.NewMessageRepository(session), ready, nil
	default:
		return memory.NewMessageRepository(), func() error { return nil }, nil
	}
}

func buildProducer(cfg config.Config, logger *slog.Logger) *kafka.Producer {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		logger.Warn("kafka producer unavailable, events stay local", "error", err)
		return nil
	}
	logger.Info("kafka event mirror enabled", "brokers", cfg.KafkaBrokers)
	return producer
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
