package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session is one unit of treatment within a plan. A session may exist
// without an appointment (a plan slot not yet on the calendar); when
// linked, ScheduledAt mirrors the appointment's start time. A session
// belongs to the same plan for its entire lifetime.
type Session struct {
	Base
	PlanID         uuid.UUID     `db:"plan_id" json:"plan_id"`
	PatientID      uuid.UUID     `db:"patient_id" json:"patient_id"`
	PractitionerID *uuid.UUID    `db:"practitioner_id" json:"practitioner_id,omitempty"`
	AppointmentID  *uuid.UUID    `db:"appointment_id" json:"appointment_id,omitempty"`
	ScheduledAt    *time.Time    `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Status         SessionStatus `db:"status" json:"status"`
	Notes          string        `db:"notes" json:"notes,omitempty"`
}

// GeneratedPair is one unit produced by the recurring generator: an
// appointment and the session linked to it.
type GeneratedPair struct {
	Session     *Session     `json:"session"`
	Appointment *Appointment `json:"appointment"`
}

// GenerateRecurringRequest describes a weekly recurrence: which weekdays
// (0=Sunday..6=Saturday), at what time of day, for how long.
type GenerateRecurringRequest struct {
	StartDate       string     `json:"start_date" binding:"required"`
	DaysOfWeek      []int      `json:"days_of_week" binding:"required,min=1,dive,weekday"`
	TimeOfDay       string     `json:"time_of_day" binding:"required"`
	PractitionerID  *uuid.UUID `json:"practitioner_id"`
	DurationMinutes int        `json:"duration_minutes" binding:"omitempty,min=5,max=240"`
}

// GenerateRecurringResult reports the created pairs plus any slots that
// were skipped because they collided with existing appointments.
type GenerateRecurringResult struct {
	Created []GeneratedPair `json:"created"`
	Skipped []TimeSlot      `json:"skipped,omitempty"`
}

type GeneratePendingRequest struct {
	Count int `json:"count" binding:"omitempty,min=1"`
}
