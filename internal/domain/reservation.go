package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusDeferred  ReservationStatus = "DEFERRED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// Live reports whether the status still takes part in overlap computation.
func (s ReservationStatus) Live() bool {
	return s == ReservationStatusConfirmed || s == ReservationStatusDeferred
}

// Priority is the preemption tier of a reservation. Only one elevated tier exists.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityElevated
)

func (p Priority) Elevated() bool {
	return p >= PriorityElevated
}

func PriorityFromFlag(isPriority bool) Priority {
	if isPriority {
		return PriorityElevated
	}
	return PriorityNone
}

// Advisory is an informational outcome returned alongside a successful mutation.
type Advisory string

const (
	AdvisoryNone Advisory = ""
	// AdvisoryDeferred: the reservation was recorded but overlaps a confirmed one.
	AdvisoryDeferred Advisory = "DEFERRED_CONFLICT"
	// AdvisoryRegressed: an edit moved a confirmed reservation back to deferred.
	AdvisoryRegressed Advisory = "REGRESSED_TO_DEFERRED"
)

// Interval is the half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps uses open overlap semantics: touching endpoints do not conflict.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

type Reservation struct {
	ID          string
	ResourceID  string
	RequesterID string
	Interval    Interval
	Priority    Priority
	Status      ReservationStatus
	Remarks     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (r Reservation) Confirmed() bool {
	return r.Status == ReservationStatusConfirmed
}

func (r Reservation) Cancelled() bool {
	return r.Status == ReservationStatusCancelled
}
