package fleet

import (
	"context"
	"errors"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/logging"
	"github.com/Domenick1991/aeroclub/internal/repository"
)

const reasonUnknownAircraft = "unknown aircraft"

type FleetUseCase interface {
	List(ctx context.Context) ([]domain.Aircraft, error)
	IsBookable(ctx context.Context, aircraftID string) (domain.Availability, error)
}

type AvailabilityCache interface {
	GetAvailability(ctx context.Context, aircraftID string) (*domain.Availability, error)
	SetAvailability(ctx context.Context, aircraftID string, availability domain.Availability) error
}

// FleetService answers whether an aircraft may be reserved at all. Airworthiness
// and document state are maintained elsewhere and land in aircraft.bookable.
type FleetService struct {
	repo  repository.AircraftRepository
	cache AvailabilityCache
}

func NewFleetService(repo repository.AircraftRepository, cache AvailabilityCache) *FleetService {
	return &FleetService{repo: repo, cache: cache}
}

func (s *FleetService) List(ctx context.Context) ([]domain.Aircraft, error) {
	return s.repo.List(ctx)
}

func (s *FleetService) IsBookable(ctx context.Context, aircraftID string) (domain.Availability, error) {
	if s.cache != nil {
		cached, err := s.cache.GetAvailability(ctx, aircraftID)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("aircraft_id", aircraftID).Msg("availability cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}

	aircraft, err := s.repo.GetByID(ctx, aircraftID)
	var availability domain.Availability
	switch {
	case errors.Is(err, domain.ErrNotFound):
		availability = domain.Availability{Bookable: false, Reason: reasonUnknownAircraft}
	case err != nil:
		return domain.Availability{}, err
	default:
		availability = domain.Availability{Bookable: aircraft.Bookable}
		if !aircraft.Bookable {
			availability.Reason = aircraft.UnavailableReason
		}
	}

	if s.cache != nil {
		if err := s.cache.SetAvailability(ctx, aircraftID, availability); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("aircraft_id", aircraftID).Msg("availability cache write failed")
		}
	}
	return availability, nil
}

var _ FleetUseCase = (*FleetService)(nil)
