package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

const sessionColumns = `
	id, plan_id, patient_id, practitioner_id, appointment_id,
	scheduled_at, status, notes, created_at, updated_at
`

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1
	`
	var session model.Session
	err := r.db.GetContext(ctx, &session, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("session", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE plan_id = $1
		ORDER BY scheduled_at ASC NULLS LAST, created_at ASC
	`
	var sessions []*model.Session
	err := r.db.SelectContext(ctx, &sessions, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, session *model.Session) error {
	query := `
		INSERT INTO sessions (
			id, plan_id, patient_id, practitioner_id, appointment_id,
			scheduled_at, status, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		session.ID,
		session.PlanID,
		session.PatientID,
		session.PractitionerID,
		session.AppointmentID,
		session.ScheduledAt,
		session.Status,
		session.Notes,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1
		FOR UPDATE
	`
	var session model.Session
	err := tx.GetContext(ctx, &session, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("session", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, session *model.Session) error {
	query := `
		UPDATE sessions
		SET practitioner_id = $1, appointment_id = $2, scheduled_at = $3,
			status = $4, notes = $5, updated_at = $6
		WHERE id = $7
	`
	session.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, query,
		session.PractitionerID,
		session.AppointmentID,
		session.ScheduledAt,
		session.Status,
		session.Notes,
		session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("session", nil)
	}
	return nil
}

func (r *sessionRepository) GetByAppointmentTx(ctx context.Context, tx *sqlx.Tx, appointmentID uuid.UUID) (*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE appointment_id = $1
		FOR UPDATE
	`
	var session model.Session
	err := tx.GetContext(ctx, &session, query, appointmentID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by appointment: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) DeleteByPlanTx(ctx context.Context, tx *sqlx.Tx, planID uuid.UUID) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE plan_id = $1`, planID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete plan sessions: %w", err)
	}
	return result.RowsAffected()
}
