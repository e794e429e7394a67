package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/aeroclub/internal/clock"
	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/kafka"
	"github.com/Domenick1991/aeroclub/internal/lock"
	"github.com/Domenick1991/aeroclub/internal/logging"
	"github.com/Domenick1991/aeroclub/internal/repository"
	"github.com/google/uuid"
)

type ReservationUseCase interface {
	Create(ctx context.Context, input CreateInput) (Result, error)
	Update(ctx context.Context, id, actorID string, patch Patch) (Result, error)
	Cancel(ctx context.Context, id, actorID string) (Result, error)
	Reevaluate(ctx context.Context, id, actorID string) (Result, error)
	Get(ctx context.Context, id string) (*domain.Reservation, error)
	List(ctx context.Context, filter repository.ListFilter) ([]domain.Reservation, error)
}

// Gate reports whether a resource is reservable at all, independent of time conflicts.
type Gate interface {
	IsBookable(ctx context.Context, resourceID string) (domain.Availability, error)
}

type Privileges interface {
	IsPrivileged(ctx context.Context, actorID string) (bool, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type CreateInput struct {
	ResourceID  string
	RequesterID string
	// ActorID defaults to RequesterID. Booking for someone else requires privilege.
	ActorID    string
	Interval   domain.Interval
	IsPriority bool
	Remarks    string
}

// Patch carries the fields to change; nil fields are left alone.
type Patch struct {
	ResourceID *string
	Start      *time.Time
	End        *time.Time
	IsPriority *bool
	Remarks    *string
}

func (p Patch) touchesPlacement() bool {
	return p.ResourceID != nil || p.Start != nil || p.End != nil
}

type Result struct {
	Reservation domain.Reservation
	Demoted     []domain.Reservation
	Advisory    domain.Advisory
}

type ServiceOption func(*Service)

func WithLocker(l lock.Locker) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

func WithProducer(p Producer, topic string) ServiceOption {
	return func(s *Service) {
		s.producer = p
		s.topic = topic
	}
}

func WithClock(c clock.Clock) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithIDGenerator(gen func() string) ServiceOption {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func WithMaxAttempts(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// Service is the reservation lifecycle manager. Every mutation holds the
// per-aircraft lock from the conflict read until the write set is committed.
type Service struct {
	repo        repository.ReservationRepository
	detector    ConflictDetector
	gate        Gate
	privileges  Privileges
	locker      lock.Locker
	producer    Producer
	topic       string
	clock       clock.Clock
	newID       func() string
	maxAttempts int
}

func NewService(repo repository.ReservationRepository, gate Gate, privileges Privileges, opts ...ServiceOption) *Service {
	s := &Service{
		repo:        repo,
		detector:    NewConflictDetector(repo),
		gate:        gate,
		privileges:  privileges,
		locker:      lock.NewKeyed(),
		clock:       clock.NewSystem(),
		newID:       uuid.NewString,
		maxAttempts: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Result, error) {
	if input.ActorID == "" {
		input.ActorID = input.RequesterID
	}
	if err := validateCreate(input); err != nil {
		return Result{}, err
	}

	privileged, err := s.isPrivileged(ctx, input.ActorID)
	if err != nil {
		return Result{}, err
	}
	if input.ActorID != input.RequesterID && !privileged {
		return Result{}, fmt.Errorf("%w: %s may not reserve for %s", domain.ErrForbidden, input.ActorID, input.RequesterID)
	}
	if err := s.checkBookable(ctx, input.ResourceID); err != nil {
		return Result{}, err
	}

	priority := domain.PriorityFromFlag(input.IsPriority && privileged)
	id := s.newID()

	var result Result
	err = s.withRetry(ctx, func() error {
		return s.critical(ctx, []string{input.ResourceID}, func(txCtx context.Context) error {
			conflicts, err := s.detector.ConfirmedConflicts(txCtx, input.ResourceID, input.Interval, "")
			if err != nil {
				return err
			}
			decision := Admit(conflicts, priority.Elevated())

			now := s.clock.Now()
			demoted, err := s.demote(txCtx, decision.Demote, now)
			if err != nil {
				return err
			}

			created := domain.Reservation{
				ID:          id,
				ResourceID:  input.ResourceID,
				RequesterID: input.RequesterID,
				Interval:    input.Interval,
				Priority:    priority,
				Status:      decision.Status,
				Remarks:     input.Remarks,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.repo.Create(txCtx, &created); err != nil {
				return err
			}

			result = Result{Reservation: created, Demoted: demoted, Advisory: decision.Advisory}
			return nil
		})
	})
	if err != nil {
		return Result{}, err
	}

	s.logOutcome(ctx, "created", input.ActorID, result)
	s.publish(ctx, kafka.EventReservationCreated, input.ActorID, result)
	return result, nil
}

func (s *Service) Update(ctx context.Context, id, actorID string, patch Patch) (Result, error) {
	return s.edit(ctx, id, actorID, patch, patch.touchesPlacement())
}

// Reevaluate reruns admission on the reservation's current placement. This is
// how a deferred reservation gets promoted once its conflicts have cleared.
func (s *Service) Reevaluate(ctx context.Context, id, actorID string) (Result, error) {
	return s.edit(ctx, id, actorID, Patch{}, true)
}

func (s *Service) edit(ctx context.Context, id, actorID string, patch Patch, readmit bool) (Result, error) {
	if strings.TrimSpace(actorID) == "" {
		return Result{}, requiredField("actor_id")
	}
	privileged, err := s.isPrivileged(ctx, actorID)
	if err != nil {
		return Result{}, err
	}

	var result Result
	err = s.withRetry(ctx, func() error {
		current, err := s.loadLive(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(current, actorID, privileged); err != nil {
			return err
		}

		target, err := applyPatch(*current, patch, privileged)
		if err != nil {
			return err
		}
		if target.ResourceID != current.ResourceID {
			if err := s.checkBookable(ctx, target.ResourceID); err != nil {
				return err
			}
		}

		return s.critical(ctx, []string{current.ResourceID, target.ResourceID}, func(txCtx context.Context) error {
			// the lock keys came from an unlocked read; bail out if it went stale
			locked, err := s.loadLive(txCtx, id)
			if err != nil {
				return err
			}
			if locked.ResourceID != current.ResourceID || !locked.UpdatedAt.Equal(current.UpdatedAt) {
				return domain.ErrConcurrencyConflict
			}

			now := s.clock.Now()
			var demoted []domain.Reservation
			advisory := domain.AdvisoryNone
			if readmit {
				conflicts, err := s.detector.ConfirmedConflicts(txCtx, target.ResourceID, target.Interval, target.ID)
				if err != nil {
					return err
				}
				decision := Readmit(locked.Status, conflicts, privileged && target.Priority.Elevated())
				if demoted, err = s.demote(txCtx, decision.Demote, now); err != nil {
					return err
				}
				target.Status = decision.Status
				advisory = decision.Advisory
			}

			target.UpdatedAt = now
			if err := s.repo.Update(txCtx, &target); err != nil {
				return err
			}
			result = Result{Reservation: target, Demoted: demoted, Advisory: advisory}
			return nil
		})
	})
	if err != nil {
		return Result{}, err
	}

	s.logOutcome(ctx, "updated", actorID, result)
	s.publish(ctx, kafka.EventReservationUpdated, actorID, result)
	return result, nil
}

// Cancel is idempotent. Reservations that were blocked by the cancelled one
// stay deferred until they are edited or re-evaluated themselves.
func (s *Service) Cancel(ctx context.Context, id, actorID string) (Result, error) {
	if strings.TrimSpace(actorID) == "" {
		return Result{}, requiredField("actor_id")
	}
	privileged, err := s.isPrivileged(ctx, actorID)
	if err != nil {
		return Result{}, err
	}

	var result Result
	changed := false
	err = s.withRetry(ctx, func() error {
		current, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(current, actorID, privileged); err != nil {
			return err
		}
		if current.Cancelled() {
			result = Result{Reservation: *current}
			return nil
		}

		return s.critical(ctx, []string{current.ResourceID}, func(txCtx context.Context) error {
			locked, err := s.repo.Get(txCtx, id)
			if err != nil {
				return err
			}
			if locked.ResourceID != current.ResourceID {
				return domain.ErrConcurrencyConflict
			}
			if locked.Cancelled() {
				result = Result{Reservation: *locked}
				return nil
			}

			now := s.clock.Now()
			if err := s.repo.UpdateStatus(txCtx, id, domain.ReservationStatusCancelled, now); err != nil {
				return err
			}
			locked.Status = domain.ReservationStatusCancelled
			locked.UpdatedAt = now
			result = Result{Reservation: *locked}
			changed = true
			return nil
		})
	})
	if err != nil {
		return Result{}, err
	}

	if changed {
		s.logOutcome(ctx, "cancelled", actorID, result)
		s.publish(ctx, kafka.EventReservationCancelled, actorID, result)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter repository.ListFilter) ([]domain.Reservation, error) {
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		verr := &domain.ValidationError{}
		verr.Add("to", "must be after from")
		return nil, verr
	}
	return s.repo.List(ctx, filter)
}

// critical holds the in-process (and optionally distributed) lock, then runs
// fn inside the repository transaction that also locks the resources.
func (s *Service) critical(ctx context.Context, resourceIDs []string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Lock(ctx, resourceIDs...)
	if err != nil {
		return err
	}
	defer unlock()
	return s.repo.WithResourceLock(ctx, lock.Normalize(resourceIDs), fn)
}

func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		logging.FromContext(ctx).Debug().Err(err).Int("attempt", attempt).Msg("admission conflict, retrying")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

func (s *Service) demote(ctx context.Context, conflicts []domain.Reservation, now time.Time) ([]domain.Reservation, error) {
	if len(conflicts) == 0 {
		return nil, nil
	}
	demoted := make([]domain.Reservation, 0, len(conflicts))
	for _, c := range conflicts {
		if err := s.repo.UpdateStatus(ctx, c.ID, domain.ReservationStatusDeferred, now); err != nil {
			return nil, fmt.Errorf("demote %s: %w", c.ID, err)
		}
		c.Status = domain.ReservationStatusDeferred
		c.UpdatedAt = now
		demoted = append(demoted, c)
	}
	return demoted, nil
}

func (s *Service) loadLive(ctx context.Context, id string) (*domain.Reservation, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Cancelled() {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (s *Service) isPrivileged(ctx context.Context, actorID string) (bool, error) {
	if s.privileges == nil {
		return false, nil
	}
	ok, err := s.privileges.IsPrivileged(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("check privileges: %w", err)
	}
	return ok, nil
}

func (s *Service) checkBookable(ctx context.Context, resourceID string) error {
	if s.gate == nil {
		return nil
	}
	availability, err := s.gate.IsBookable(ctx, resourceID)
	if err != nil {
		return fmt.Errorf("check availability of %s: %w", resourceID, err)
	}
	if !availability.Bookable {
		return &domain.UnavailableError{ResourceID: resourceID, Reason: availability.Reason}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType, actorID string, result Result) {
	if s.producer == nil || s.topic == "" {
		return
	}
	now := s.clock.Now()
	r := result.Reservation

	events := make([]kafka.ReservationEvent, 0, 1+len(result.Demoted))
	events = append(events, kafka.NewReservationEvent(eventType, r, actorID, result.Advisory, now))
	for _, d := range result.Demoted {
		event := kafka.NewReservationEvent(kafka.EventReservationDemoted, d, actorID, domain.AdvisoryNone, now)
		event.PreemptedBy = r.ID
		events = append(events, event)
	}

	for _, event := range events {
		if err := s.producer.Publish(ctx, s.topic, event.ResourceID, event); err != nil {
			logging.FromContext(ctx).Warn().Err(err).
				Str("event", event.Type).
				Str("reservation_id", event.ReservationID).
				Msg("failed to publish reservation event")
		}
	}
}

func (s *Service) logOutcome(ctx context.Context, action, actorID string, result Result) {
	logging.FromContext(ctx).Info().
		Str("reservation_id", result.Reservation.ID).
		Str("resource_id", result.Reservation.ResourceID).
		Str("actor_id", actorID).
		Str("status", string(result.Reservation.Status)).
		Str("advisory", string(result.Advisory)).
		Int("demoted", len(result.Demoted)).
		Msg("reservation " + action)
}

func authorize(r *domain.Reservation, actorID string, privileged bool) error {
	if r.RequesterID == actorID || privileged {
		return nil
	}
	return fmt.Errorf("%w: %s does not own reservation %s", domain.ErrForbidden, actorID, r.ID)
}

// applyPatch returns the edited copy. A priority flag raised by an actor
// without privilege is ignored rather than rejected.
func applyPatch(current domain.Reservation, patch Patch, privileged bool) (domain.Reservation, error) {
	target := current
	if patch.ResourceID != nil {
		target.ResourceID = strings.TrimSpace(*patch.ResourceID)
	}
	if patch.Start != nil {
		target.Interval.Start = *patch.Start
	}
	if patch.End != nil {
		target.Interval.End = *patch.End
	}
	if patch.Remarks != nil {
		target.Remarks = *patch.Remarks
	}
	if patch.IsPriority != nil && (privileged || !*patch.IsPriority) {
		target.Priority = domain.PriorityFromFlag(*patch.IsPriority)
	}

	verr := &domain.ValidationError{}
	if target.ResourceID == "" {
		verr.Add("resource_id", "is required")
	}
	if !target.Interval.Valid() {
		verr.Add("interval", "start must be before end")
	}
	if verr.HasErrors() {
		return domain.Reservation{}, verr
	}
	return target, nil
}

func validateCreate(input CreateInput) error {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(input.ResourceID) == "" {
		verr.Add("resource_id", "is required")
	}
	if strings.TrimSpace(input.RequesterID) == "" {
		verr.Add("requester_id", "is required")
	}
	if input.Interval.Start.IsZero() || input.Interval.End.IsZero() {
		verr.Add("interval", "start and end are required")
	} else if !input.Interval.Valid() {
		verr.Add("interval", "start must be before end")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func requiredField(field string) error {
	verr := &domain.ValidationError{}
	verr.Add(field, "is required")
	return verr
}

var _ ReservationUseCase = (*Service)(nil)
