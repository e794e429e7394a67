package interval

import (
	"testing"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/stretchr/testify/assert"
)

var base = time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func res(id, resource string, start, end time.Time, status domain.ReservationStatus) domain.Reservation {
	return domain.Reservation{
		ID:         id,
		ResourceID: resource,
		Interval:   domain.Interval{Start: start, End: end},
		Status:     status,
	}
}

func ids(rs []domain.Reservation) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func TestIndex_Overlapping(t *testing.T) {
	x := NewIndex()
	x.Put(res("a", "D-EABC", at(10, 0), at(11, 0), domain.ReservationStatusConfirmed))
	x.Put(res("b", "D-EABC", at(10, 30), at(11, 30), domain.ReservationStatusDeferred))
	x.Put(res("c", "D-EABC", at(11, 0), at(12, 0), domain.ReservationStatusConfirmed))
	x.Put(res("d", "D-EXYZ", at(10, 0), at(11, 0), domain.ReservationStatusConfirmed))

	t.Run("open overlap semantics", func(t *testing.T) {
		got := x.Overlapping("D-EABC", domain.Interval{Start: at(10, 15), End: at(10, 45)}, "")
		assert.Equal(t, []string{"a", "b"}, ids(got))
	})

	t.Run("touching endpoints do not overlap", func(t *testing.T) {
		got := x.Overlapping("D-EABC", domain.Interval{Start: at(9, 0), End: at(10, 0)}, "")
		assert.Empty(t, got)
	})

	t.Run("exclude own record", func(t *testing.T) {
		got := x.Overlapping("D-EABC", domain.Interval{Start: at(10, 0), End: at(12, 0)}, "b")
		assert.Equal(t, []string{"a", "c"}, ids(got))
	})

	t.Run("other resources are invisible", func(t *testing.T) {
		got := x.Overlapping("D-EXYZ", domain.Interval{Start: at(10, 0), End: at(12, 0)}, "")
		assert.Equal(t, []string{"d"}, ids(got))
	})
}

func TestIndex_PutReplacesAndDropsCancelled(t *testing.T) {
	x := NewIndex()
	x.Put(res("a", "D-EABC", at(10, 0), at(11, 0), domain.ReservationStatusConfirmed))

	// moved to another aircraft
	x.Put(res("a", "D-EXYZ", at(10, 0), at(11, 0), domain.ReservationStatusConfirmed))
	assert.Equal(t, 0, x.Len("D-EABC"))
	assert.Equal(t, 1, x.Len("D-EXYZ"))

	x.Put(res("a", "D-EXYZ", at(10, 0), at(11, 0), domain.ReservationStatusCancelled))
	assert.Equal(t, 0, x.Len("D-EXYZ"))
	assert.Empty(t, x.Overlapping("D-EXYZ", domain.Interval{Start: at(0, 0), End: at(23, 0)}, ""))
}

func TestIndex_Remove(t *testing.T) {
	x := NewIndex()
	x.Put(res("a", "D-EABC", at(10, 0), at(11, 0), domain.ReservationStatusConfirmed))
	x.Put(res("b", "D-EABC", at(12, 0), at(13, 0), domain.ReservationStatusConfirmed))

	x.Remove("a")
	x.Remove("missing")

	got := x.Overlapping("D-EABC", domain.Interval{Start: at(0, 0), End: at(23, 0)}, "")
	assert.Equal(t, []string{"b"}, ids(got))
}
