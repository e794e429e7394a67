// Package interval keeps live reservations per resource and answers overlap queries.
//
// Lookups scan the resource's bucket linearly. Club fleets carry at most a few
// thousand live reservations per aircraft, so a tree buys nothing here.
package interval

import (
	"sort"
	"sync"

	"github.com/Domenick1991/aeroclub/internal/domain"
)

type Index struct {
	mu         sync.RWMutex
	byResource map[string][]domain.Reservation
	resourceOf map[string]string
}

func NewIndex() *Index {
	return &Index{
		byResource: make(map[string][]domain.Reservation),
		resourceOf: make(map[string]string),
	}
}

// Put inserts or replaces a reservation. Cancelled reservations are dropped from the index.
func (x *Index) Put(r domain.Reservation) {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.removeLocked(r.ID)
	if !r.Status.Live() {
		return
	}
	x.byResource[r.ResourceID] = append(x.byResource[r.ResourceID], r)
	x.resourceOf[r.ID] = r.ResourceID
}

func (x *Index) Remove(id string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.removeLocked(id)
}

func (x *Index) removeLocked(id string) {
	resourceID, ok := x.resourceOf[id]
	if !ok {
		return
	}
	delete(x.resourceOf, id)

	bucket := x.byResource[resourceID]
	for i := range bucket {
		if bucket[i].ID == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(x.byResource, resourceID)
		return
	}
	x.byResource[resourceID] = bucket
}

// Overlapping returns every live reservation on resourceID intersecting iv,
// skipping excludeID when it is non-empty. Results are ordered by start time.
func (x *Index) Overlapping(resourceID string, iv domain.Interval, excludeID string) []domain.Reservation {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []domain.Reservation
	for _, r := range x.byResource[resourceID] {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		if r.Interval.Overlaps(iv) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Interval.Start.Before(out[j].Interval.Start)
	})
	return out
}

func (x *Index) Len(resourceID string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byResource[resourceID])
}
