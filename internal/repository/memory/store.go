// Package memory is an in-process ReservationRepository backed by the interval index.
// It serves local runs without Postgres and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/interval"
	"github.com/Domenick1991/aeroclub/internal/lock"
	"github.com/Domenick1991/aeroclub/internal/repository"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]domain.Reservation
	index   *interval.Index
	locks   *lock.Keyed
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]domain.Reservation),
		index:   interval.NewIndex(),
		locks:   lock.NewKeyed(),
	}
}

type txKey struct{}

// undoLog records how to revert each write made inside WithResourceLock.
type undoLog struct {
	steps []func()
}

// WithResourceLock holds the store's own per-resource lock and reverts every
// write made by fn when it fails. Writes are visible to readers immediately,
// but only for resources the caller holds.
func (s *Store) WithResourceLock(ctx context.Context, resourceIDs []string, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(txKey{}).(*undoLog); nested {
		return fn(ctx)
	}

	unlock, err := s.locks.Lock(ctx, resourceIDs...)
	if err != nil {
		return err
	}
	defer unlock()

	log := &undoLog{}
	if err := fn(context.WithValue(ctx, txKey{}, log)); err != nil {
		s.mu.Lock()
		for i := len(log.steps) - 1; i >= 0; i-- {
			log.steps[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s *Store) Overlapping(ctx context.Context, resourceID string, iv domain.Interval, excludeID string) ([]domain.Reservation, error) {
	return s.index.Overlapping(resourceID, iv, excludeID), nil
}

func (s *Store) List(ctx context.Context, filter repository.ListFilter) ([]domain.Reservation, error) {
	s.mu.RLock()
	out := make([]domain.Reservation, 0)
	for _, r := range s.records {
		if filter.ResourceID != "" && r.ResourceID != filter.ResourceID {
			continue
		}
		if filter.RequesterID != "" && r.RequesterID != filter.RequesterID {
			continue
		}
		if filter.From != nil && !r.Interval.End.After(*filter.From) {
			continue
		}
		if filter.To != nil && !r.Interval.Start.Before(*filter.To) {
			continue
		}
		if !filter.IncludeCancelled && r.Cancelled() {
			continue
		}
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Interval.Start.Equal(out[j].Interval.Start) {
			return out[i].Interval.Start.Before(out[j].Interval.Start)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, r *domain.Reservation) error {
	s.put(ctx, *r)
	return nil
}

func (s *Store) Update(ctx context.Context, r *domain.Reservation) error {
	s.mu.RLock()
	_, ok := s.records[r.ID]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}
	s.put(ctx, *r)
	return nil
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus, at time.Time) error {
	s.mu.RLock()
	r, ok := s.records[id]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	s.put(ctx, r)
	return nil
}

func (s *Store) put(ctx context.Context, r domain.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.records[r.ID]
	if log, ok := ctx.Value(txKey{}).(*undoLog); ok {
		log.steps = append(log.steps, func() {
			if existed {
				s.records[prev.ID] = prev
				s.index.Put(prev)
				return
			}
			delete(s.records, r.ID)
			s.index.Remove(r.ID)
		})
	}
	s.records[r.ID] = r
	s.index.Put(r)
}

var _ repository.ReservationRepository = (*Store)(nil)
