package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOverlapper struct {
	mock.Mock
}

func (m *MockOverlapper) Overlapping(ctx context.Context, resourceID string, iv domain.Interval, excludeID string) ([]domain.Reservation, error) {
	args := m.Called(ctx, resourceID, iv, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func TestConflictDetector_FiltersAndOrders(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	iv := domain.Interval{Start: base, End: base.Add(time.Hour)}

	overlapping := []domain.Reservation{
		{ID: "c", Status: domain.ReservationStatusConfirmed, CreatedAt: base.Add(2 * time.Minute)},
		{ID: "d", Status: domain.ReservationStatusDeferred, CreatedAt: base},
		{ID: "b", Status: domain.ReservationStatusConfirmed, CreatedAt: base.Add(time.Minute)},
		{ID: "a", Status: domain.ReservationStatusConfirmed, CreatedAt: base.Add(time.Minute)},
	}

	index := new(MockOverlapper)
	index.On("Overlapping", mock.Anything, "R", iv, "self").Return(overlapping, nil)

	conflicts, err := NewConflictDetector(index).ConfirmedConflicts(context.Background(), "R", iv, "self")

	require.NoError(t, err)
	ids := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	index.AssertExpectations(t)
}

func TestConflictDetector_PropagatesError(t *testing.T) {
	index := new(MockOverlapper)
	index.On("Overlapping", mock.Anything, "R", mock.Anything, "").Return(nil, errors.New("db down"))

	_, err := NewConflictDetector(index).ConfirmedConflicts(context.Background(), "R", domain.Interval{}, "")

	assert.EqualError(t, err, "db down")
}

func TestAdmit(t *testing.T) {
	conflicts := []domain.Reservation{{ID: "a"}, {ID: "b"}}

	tests := []struct {
		name      string
		conflicts []domain.Reservation
		preempt   bool
		want      Decision
	}{
		{
			name: "no conflicts confirms",
			want: Decision{Status: domain.ReservationStatusConfirmed},
		},
		{
			name:    "no conflicts with priority demotes nothing",
			preempt: true,
			want:    Decision{Status: domain.ReservationStatusConfirmed},
		},
		{
			name:      "conflicts without priority defer",
			conflicts: conflicts,
			want:      Decision{Status: domain.ReservationStatusDeferred, Advisory: domain.AdvisoryDeferred},
		},
		{
			name:      "conflicts with priority demote every conflict",
			conflicts: conflicts,
			preempt:   true,
			want:      Decision{Status: domain.ReservationStatusConfirmed, Demote: conflicts},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Admit(tt.conflicts, tt.preempt))
		})
	}
}

func TestReadmit(t *testing.T) {
	conflicts := []domain.Reservation{{ID: "a"}}

	tests := []struct {
		name     string
		previous domain.ReservationStatus
		conflict []domain.Reservation
		want     domain.Advisory
		status   domain.ReservationStatus
	}{
		{"confirmed into conflict regresses", domain.ReservationStatusConfirmed, conflicts, domain.AdvisoryRegressed, domain.ReservationStatusDeferred},
		{"deferred staying deferred", domain.ReservationStatusDeferred, conflicts, domain.AdvisoryDeferred, domain.ReservationStatusDeferred},
		{"deferred promoted", domain.ReservationStatusDeferred, nil, domain.AdvisoryNone, domain.ReservationStatusConfirmed},
		{"confirmed stays confirmed", domain.ReservationStatusConfirmed, nil, domain.AdvisoryNone, domain.ReservationStatusConfirmed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Readmit(tt.previous, tt.conflict, false)
			assert.Equal(t, tt.status, d.Status)
			assert.Equal(t, tt.want, d.Advisory)
			assert.Empty(t, d.Demote)
		})
	}
}
