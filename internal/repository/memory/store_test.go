package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

func reservation(id string, startHour, endHour int, status domain.ReservationStatus) domain.Reservation {
	return domain.Reservation{
		ID:         id,
		ResourceID: "D-EABC",
		Interval:   domain.Interval{Start: day.Add(time.Duration(startHour) * time.Hour), End: day.Add(time.Duration(endHour) * time.Hour)},
		Status:     status,
	}
}

func TestStore_RollbackRevertsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := reservation("a", 10, 11, domain.ReservationStatusConfirmed)
	require.NoError(t, s.Create(ctx, &a))

	boom := errors.New("boom")
	err := s.WithResourceLock(ctx, []string{"D-EABC"}, func(ctx context.Context) error {
		b := reservation("b", 10, 11, domain.ReservationStatusConfirmed)
		require.NoError(t, s.Create(ctx, &b))
		require.NoError(t, s.UpdateStatus(ctx, "a", domain.ReservationStatusDeferred, day))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusConfirmed, got.Status)

	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	overlaps, err := s.Overlapping(ctx, "D-EABC", a.Interval, "")
	require.NoError(t, err)
	require.Len(t, overlaps, 1)
	assert.Equal(t, "a", overlaps[0].ID)
}

func TestStore_CancelledStaysForAuditButLeavesIndex(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	a := reservation("a", 10, 11, domain.ReservationStatusConfirmed)
	require.NoError(t, s.Create(ctx, &a))
	require.NoError(t, s.UpdateStatus(ctx, "a", domain.ReservationStatusCancelled, day))

	overlaps, err := s.Overlapping(ctx, "D-EABC", a.Interval, "")
	require.NoError(t, err)
	assert.Empty(t, overlaps)

	all, err := s.List(ctx, repository.ListFilter{ResourceID: "D-EABC", IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	live, err := s.List(ctx, repository.ListFilter{ResourceID: "D-EABC"})
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestStore_ListWindow(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, r := range []domain.Reservation{
		reservation("a", 8, 9, domain.ReservationStatusConfirmed),
		reservation("b", 10, 11, domain.ReservationStatusDeferred),
		reservation("c", 12, 13, domain.ReservationStatusConfirmed),
	} {
		r := r
		require.NoError(t, s.Create(ctx, &r))
	}

	from := day.Add(9 * time.Hour)
	to := day.Add(12 * time.Hour)
	got, err := s.List(ctx, repository.ListFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestStore_UpdateMissing(t *testing.T) {
	s := NewStore()
	r := reservation("ghost", 1, 2, domain.ReservationStatusConfirmed)
	assert.ErrorIs(t, s.Update(context.Background(), &r), domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateStatus(context.Background(), "ghost", domain.ReservationStatusCancelled, day), domain.ErrNotFound)
}
