package domain

import "time"

type Aircraft struct {
	ID                string    `json:"id"`
	Registration      string    `json:"registration"`
	Model             string    `json:"model"`
	Bookable          bool      `json:"bookable"`
	UnavailableReason string    `json:"unavailable_reason,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Availability is the gating verdict for an aircraft, independent of time conflicts.
type Availability struct {
	Bookable bool   `json:"bookable"`
	Reason   string `json:"reason,omitempty"`
}

type MemberRole string

const (
	MemberRolePilot      MemberRole = "pilot"
	MemberRoleInstructor MemberRole = "instructor"
	MemberRoleAdmin      MemberRole = "admin"
)

func (r MemberRole) Privileged() bool {
	return r == MemberRoleAdmin || r == MemberRoleInstructor
}

type Member struct {
	ID          string
	DisplayName string
	Role        MemberRole
}
