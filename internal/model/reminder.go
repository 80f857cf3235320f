package model

import (
	"time"

	"github.com/google/uuid"
)

// ReminderEvent is published on the broker after an appointment is
// created with notifications enabled. Delivery is handled by an
// external consumer; this engine only emits the event.
type ReminderEvent struct {
	ID            uuid.UUID `json:"id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	StartTime     time.Time `json:"start_time"`
	RemindAt      time.Time `json:"remind_at"`
	CreatedAt     time.Time `json:"created_at"`
}
