package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/aeroclub/api"
	"github.com/Domenick1991/aeroclub/config"
	"github.com/Domenick1991/aeroclub/internal/service/fleet"
	"github.com/Domenick1991/aeroclub/internal/service/reservation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthCheck probes one dependency for /healthz.
type HealthCheck func(ctx context.Context) error

type Services struct {
	Reservations reservation.ReservationUseCase
	Fleet        fleet.FleetUseCase
	Checks       map[string]HealthCheck
}

// NewRouter wires the HTTP API. Fleet routes are skipped when no fleet service is given.
func NewRouter(logger zerolog.Logger, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	router.GET("/healthz", healthHandler(svc.Checks))

	v1 := router.Group("/api/v1")
	api.NewReservationHandler(svc.Reservations).Register(v1.Group("/reservations"))
	if svc.Fleet != nil {
		api.NewFleetHandler(svc.Fleet).Register(v1.Group("/aircraft"))
	}
	return router
}

// Run serves HTTP until ctx is cancelled or the server fails, then shuts down gracefully.
func Run(ctx context.Context, cfg config.HTTPConfig, handler http.Handler, logger zerolog.Logger) error {
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.Address).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSeconds)*time.Second)
		defer cancel()
		logger.Info().Msg("shutting down http server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		c.JSON(status, gin.H{"checks": report})
	}
}
