package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// Appointment is a calendar booking for a patient, optionally tied to a
// practitioner and a resource (e.g. a room). PractitionerID is nullable:
// an appointment may be provisionally scheduled before a practitioner is
// assigned.
type Appointment struct {
	Base
	PatientID      uuid.UUID         `db:"patient_id" json:"patient_id"`
	PractitionerID *uuid.UUID        `db:"practitioner_id" json:"practitioner_id,omitempty"`
	ResourceID     *uuid.UUID        `db:"resource_id" json:"resource_id,omitempty"`
	StartTime      time.Time         `db:"start_time" json:"start_time"`
	EndTime        time.Time         `db:"end_time" json:"end_time"`
	Title          string            `db:"title" json:"title,omitempty"`
	Notify         bool              `db:"notify" json:"notify"`
	Notes          string            `db:"notes" json:"notes,omitempty"`
	Status         AppointmentStatus `db:"status" json:"status"`
}

// CanTransitionTo reports whether the appointment may move to the target
// status. Completed, cancelled and no-show are terminal.
func (a *Appointment) CanTransitionTo(target AppointmentStatus) bool {
	switch a.Status {
	case AppointmentStatusScheduled:
		return target == AppointmentStatusInProgress ||
			target == AppointmentStatusCompleted ||
			target == AppointmentStatusCancelled ||
			target == AppointmentStatusNoShow
	case AppointmentStatusInProgress:
		return target == AppointmentStatusCompleted ||
			target == AppointmentStatusCancelled ||
			target == AppointmentStatusNoShow
	default:
		return false
	}
}

// ConflictInfo is the caller-facing shape of a conflicting appointment.
type ConflictInfo struct {
	ID        uuid.UUID `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Title     string    `json:"title,omitempty"`
}

func NewConflictInfos(appointments []*Appointment) []ConflictInfo {
	infos := make([]ConflictInfo, 0, len(appointments))
	for _, apt := range appointments {
		infos = append(infos, ConflictInfo{
			ID:        apt.ID,
			StartTime: apt.StartTime,
			EndTime:   apt.EndTime,
			Title:     apt.Title,
		})
	}
	return infos
}

type CreateAppointmentRequest struct {
	PatientID      uuid.UUID  `json:"patient_id" binding:"required"`
	PractitionerID *uuid.UUID `json:"practitioner_id"`
	ResourceID     *uuid.UUID `json:"resource_id"`
	StartTime      time.Time  `json:"start_time" binding:"required"`
	EndTime        time.Time  `json:"end_time" binding:"required"`
	Title          string     `json:"title" binding:"max=200"`
	Notify         bool       `json:"notify"`
	Notes          string     `json:"notes" binding:"max=1000"`
}

type CompleteAppointmentRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CompleteAppointmentResult is returned by the complete operation: the
// updated appointment, the owning plan when the linked session belongs to
// one, and a human-readable "completed/target" progress string.
type CompleteAppointmentResult struct {
	Appointment *Appointment   `json:"appointment"`
	Plan        *TreatmentPlan `json:"plan,omitempty"`
	Progress    string         `json:"progress,omitempty"`
}

// CancelAppointmentResult is returned by the cancel operation, with the
// session that was unlinked, if any.
type CancelAppointmentResult struct {
	Appointment *Appointment `json:"appointment"`
	Session     *Session     `json:"session,omitempty"`
}

type AppointmentFilters struct {
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	Status         AppointmentStatus
	StartDate      time.Time
	EndDate        time.Time
}
