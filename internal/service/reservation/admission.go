package reservation

import "github.com/Domenick1991/aeroclub/internal/domain"

// Decision is the admission outcome for one reservation. Demote lists the
// confirmed reservations that must move to deferred in the same write set.
type Decision struct {
	Status   domain.ReservationStatus
	Demote   []domain.Reservation
	Advisory domain.Advisory
}

// Admit decides the status of a new reservation. preempt must already be
// clamped to false for actors without privilege.
func Admit(conflicts []domain.Reservation, preempt bool) Decision {
	switch {
	case len(conflicts) == 0:
		return Decision{Status: domain.ReservationStatusConfirmed}
	case preempt:
		return Decision{Status: domain.ReservationStatusConfirmed, Demote: conflicts}
	default:
		return Decision{Status: domain.ReservationStatusDeferred, Advisory: domain.AdvisoryDeferred}
	}
}

// Readmit decides the status of an edited reservation given its status before the edit.
func Readmit(previous domain.ReservationStatus, conflicts []domain.Reservation, preempt bool) Decision {
	d := Admit(conflicts, preempt)
	if d.Status == domain.ReservationStatusDeferred && previous == domain.ReservationStatusConfirmed {
		d.Advisory = domain.AdvisoryRegressed
	}
	return d
}
