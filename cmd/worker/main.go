package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/aeroclub/config"
	"github.com/Domenick1991/aeroclub/internal/kafka"
	"github.com/Domenick1991/aeroclub/internal/logging"
	"github.com/Domenick1991/aeroclub/internal/notify"
	"github.com/Domenick1991/aeroclub/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Log, "aeroclub-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithContext(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.ReservationTopic == "" {
		return fmt.Errorf("kafka.brokers and kafka.reservation_topic are required for the worker")
	}

	var directory notify.Directory
	if !cfg.InMemory() {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		directory = repository.NewMemberRepository(pool)
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	notifier := notify.NewNotifier(directory, producer, cfg.Kafka.NotificationsTopic)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ReservationTopic)
		workerLogger := logger.With().Int("consumer", i).Logger()

		g.Go(func() error {
			defer consumer.Close()
			workerLogger.Info().Str("topic", cfg.Kafka.ReservationTopic).Msg("consuming reservation events")
			return consumer.Consume(logging.WithContext(ctx, workerLogger), notifier.Handle)
		})
	}

	return g.Wait()
}
