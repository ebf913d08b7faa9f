package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"bizkit/config"
	"bizkit/internal/migrations"
	"bizkit/internal/model"
	"bizkit/internal/mqhandler"
	"bizkit/internal/repository"
	pkgconfig "bizkit/pkg/config"
	"bizkit/pkg/db"
	"bizkit/pkg/logger"
	"bizkit/pkg/mq"
)

func main() {
	cfg, err := config.Load(pkgconfig.GetEnv("CONFIG_DIR", "."))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Server.DevMode)
	defer log.Sync()

	if cfg.MQ.URL == "" {
		log.Fatal("MQ_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting worker service...")

	dbConn, err := db.NewConnection(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.Migrate(ctx, dbConn, migrations.Migrations); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}

	logHandler := mqhandler.NewEmailDeliveryLogHandler(repository.NewEmailLogRepository(dbConn), log)

	handlers := map[string]mq.MessageHandler{
		model.RoutingEmailSent:   logHandler.HandleSent,
		model.RoutingEmailFailed: logHandler.HandleFailed,
	}

	g, gctx := errgroup.WithContext(ctx)
	for routingKey, handle := range handlers {
		log.Info("Initializing consumer", zap.String("routing_key", routingKey), zap.String("queue", mq.QueueName(routingKey)))
		consumer, err := mq.NewConsumer(cfg.MQ.URL, routingKey, log)
		if err != nil {
			log.Fatal("Failed to init consumer", zap.String("routing_key", routingKey), zap.Error(err))
		}
		defer consumer.Close()
		consumer.SetHandler(handle)

		g.Go(func() error {
			return consumer.StartConsuming(gctx)
		})
	}

	log.Info("All consumers started, worker is ready to process messages")

	if err := g.Wait(); err != nil {
		log.Error("Worker stopped with error", zap.Error(err))
		return
	}
	log.Info("Worker shutdown complete")
}
