package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
)

// TxManager runs a function inside a single database transaction.
// Every operation that touches more than one entity goes through it.
type TxManager interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// FindConflicts returns all non-cancelled appointments for the
		// practitioner whose [start, end) interval overlaps the given one,
		// excluding excludeID when non-nil.
		FindConflicts(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error)
		FindConflictsTx(ctx context.Context, tx *sqlx.Tx, practitionerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error)
		// LockPractitionerTx serializes concurrent writers against the same
		// practitioner's calendar for the duration of the transaction.
		LockPractitionerTx(ctx context.Context, tx *sqlx.Tx, practitionerID uuid.UUID) error
		CreateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error
		GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Appointment, error)
		UpdateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error
		DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
		// DeleteLinkedToPlanTx removes every appointment referenced by one of
		// the plan's sessions, returning how many were removed.
		DeleteLinkedToPlanTx(ctx context.Context, tx *sqlx.Tx, planID uuid.UUID) (int64, error)
	}

	SessionRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Session, error)
		ListByPlan(ctx context.Context, planID uuid.UUID) ([]*model.Session, error)
		CreateTx(ctx context.Context, tx *sqlx.Tx, session *model.Session) error
		GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Session, error)
		UpdateTx(ctx context.Context, tx *sqlx.Tx, session *model.Session) error
		// GetByAppointmentTx returns the session linked to the appointment,
		// or nil when no session is linked.
		GetByAppointmentTx(ctx context.Context, tx *sqlx.Tx, appointmentID uuid.UUID) (*model.Session, error)
		DeleteByPlanTx(ctx context.Context, tx *sqlx.Tx, planID uuid.UUID) (int64, error)
	}

	PlanRepository interface {
		Create(ctx context.Context, plan *model.TreatmentPlan) error
		Get(ctx context.Context, id uuid.UUID) (*model.TreatmentPlan, error)
		Update(ctx context.Context, plan *model.TreatmentPlan) error
		GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.TreatmentPlan, error)
		UpdateTx(ctx context.Context, tx *sqlx.Tx, plan *model.TreatmentPlan) error
		DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error
	}

	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
	}

	PractitionerRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error)
		Exists(ctx context.Context, id uuid.UUID) (bool, error)
	}
)
