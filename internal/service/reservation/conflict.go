package reservation

import (
	"context"
	"sort"

	"github.com/Domenick1991/aeroclub/internal/domain"
)

// Overlapper is the interval index: every live reservation on a resource
// intersecting an interval.
type Overlapper interface {
	Overlapping(ctx context.Context, resourceID string, iv domain.Interval, excludeID string) ([]domain.Reservation, error)
}

type ConflictDetector struct {
	index Overlapper
}

func NewConflictDetector(index Overlapper) ConflictDetector {
	return ConflictDetector{index: index}
}

// ConfirmedConflicts narrows overlaps to confirmed reservations, oldest first.
// Deferred reservations hold no exclusivity and never conflict.
func (d ConflictDetector) ConfirmedConflicts(ctx context.Context, resourceID string, iv domain.Interval, excludeID string) ([]domain.Reservation, error) {
	overlapping, err := d.index.Overlapping(ctx, resourceID, iv, excludeID)
	if err != nil {
		return nil, err
	}

	conflicts := make([]domain.Reservation, 0, len(overlapping))
	for _, r := range overlapping {
		if r.Confirmed() {
			conflicts = append(conflicts, r)
		}
	}
	sort.SliceStable(conflicts, func(i, j int) bool {
		if !conflicts[i].CreatedAt.Equal(conflicts[j].CreatedAt) {
			return conflicts[i].CreatedAt.Before(conflicts[j].CreatedAt)
		}
		return conflicts[i].ID < conflicts[j].ID
	})
	return conflicts, nil
}
