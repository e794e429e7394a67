package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/aeroclub/config"
	"github.com/Domenick1991/aeroclub/internal/bootstrap"
	"github.com/Domenick1991/aeroclub/internal/cache"
	"github.com/Domenick1991/aeroclub/internal/kafka"
	"github.com/Domenick1991/aeroclub/internal/lock"
	"github.com/Domenick1991/aeroclub/internal/logging"
	"github.com/Domenick1991/aeroclub/internal/repository"
	"github.com/Domenick1991/aeroclub/internal/repository/memory"
	"github.com/Domenick1991/aeroclub/internal/service/fleet"
	"github.com/Domenick1991/aeroclub/internal/service/members"
	"github.com/Domenick1991/aeroclub/internal/service/reservation"
	"github.com/Domenick1991/aeroclub/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
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

	logger := logging.New(cfg.Log, "aeroclub-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithContext(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	checks := make(map[string]bootstrap.HealthCheck)
	var locker lock.Locker = lock.NewKeyed()

	var (
		repo       repository.ReservationRepository
		gate       reservation.Gate
		privileges reservation.Privileges
		fleetSvc   fleet.FleetUseCase
	)

	if cfg.InMemory() {
		logger.Warn().Msg("database is not configured, reservations are kept in memory")
		repo = memory.NewStore()
	} else {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.Apply(ctx, pool); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		checks["postgres"] = pool.Ping

		var availabilityCache fleet.AvailabilityCache
		if cfg.Redis.Addr != "" {
			redisCache := cache.NewRedisCache(cfg.Redis, cfg.Fleet.CacheTTL())
			defer redisCache.Close()
			checks["redis"] = redisCache.Ping
			availabilityCache = redisCache

			if cfg.Reservation.DistributedLock {
				locker = lock.Chain{locker, lock.NewDistributed(redisCache, cfg.Reservation.LockTTL(), cfg.Reservation.LockWait())}
			}
		}

		fs := fleet.NewFleetService(repository.NewAircraftRepository(pool), availabilityCache)
		repo = repository.NewReservationRepository(pool)
		gate = fs
		fleetSvc = fs
		privileges = members.NewMemberService(repository.NewMemberRepository(pool))
	}

	opts := []reservation.ServiceOption{
		reservation.WithLocker(locker),
		reservation.WithMaxAttempts(cfg.Reservation.MaxAttempts),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		checks["kafka"] = producer.CheckConnection
		opts = append(opts, reservation.WithProducer(producer, cfg.Kafka.ReservationTopic))
	}

	reservationSvc := reservation.NewService(repo, gate, privileges, opts...)
	router := bootstrap.NewRouter(logger, bootstrap.Services{
		Reservations: reservationSvc,
		Fleet:        fleetSvc,
		Checks:       checks,
	})

	return bootstrap.Run(ctx, cfg.HTTP, router, logger)
}
