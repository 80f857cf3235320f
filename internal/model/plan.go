package model

import (
	"github.com/google/uuid"
)

type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusFinished  PlanStatus = "finished"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// ValidPlanStatus reports whether s is one of the enumerated plan states.
func ValidPlanStatus(s PlanStatus) bool {
	switch s {
	case PlanStatusActive, PlanStatusFinished, PlanStatusCancelled:
		return true
	}
	return false
}

// TreatmentPlan is a patient's course of care: a target number of
// sessions and a running completed count. SessionsCompleted is mutated
// exclusively by the plan service in response to session completion.
type TreatmentPlan struct {
	Base
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	EvaluationID      *uuid.UUID `db:"evaluation_id" json:"evaluation_id,omitempty"`
	Objective         string     `db:"objective" json:"objective,omitempty"`
	SessionsTarget    int        `db:"sessions_target" json:"sessions_target"`
	SessionsCompleted int        `db:"sessions_completed" json:"sessions_completed"`
	Status            PlanStatus `db:"status" json:"status"`
	Notes             string     `db:"notes" json:"notes,omitempty"`
}

// SessionsRemaining returns how many sessions the plan still needs.
func (p *TreatmentPlan) SessionsRemaining() int {
	return p.SessionsTarget - p.SessionsCompleted
}

type CreatePlanRequest struct {
	PatientID      uuid.UUID  `json:"patient_id" binding:"required"`
	EvaluationID   *uuid.UUID `json:"evaluation_id"`
	Objective      string     `json:"objective" binding:"max=2000"`
	SessionsTarget int        `json:"sessions_target" binding:"required,min=1"`
	Notes          string     `json:"notes" binding:"max=2000"`
}

type ChangePlanStateRequest struct {
	Status PlanStatus `json:"status" binding:"required"`
	Reason string     `json:"reason" binding:"max=500"`
}

type FinalizePlanRequest struct {
	ClosingNotes string `json:"closing_notes" binding:"max=2000"`
}

// DeletePlanResult reports what the cascade removed.
type DeletePlanResult struct {
	DeletedSessions     int `json:"deleted_sessions"`
	DeletedAppointments int `json:"deleted_appointments"`
}
