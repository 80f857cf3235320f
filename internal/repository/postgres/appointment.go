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

const appointmentColumns = `
	id, patient_id, practitioner_id, resource_id,
	start_time, end_time, title, notify, notes, status,
	created_at, updated_at
`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.PractitionerID != uuid.Nil {
		query += fmt.Sprintf(" AND practitioner_id = $%d", argCount)
		args = append(args, filters.PractitionerID)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.StartDate.IsZero() {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, filters.StartDate)
		argCount++
	}
	if !filters.EndDate.IsZero() {
		query += fmt.Sprintf(" AND end_time <= $%d", argCount)
		args = append(args, filters.EndDate)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Overlap is half-open: an appointment ending exactly when another
// begins does not conflict.
const findConflictsQuery = `
	SELECT ` + appointmentColumns + `
	FROM appointments
	WHERE practitioner_id = $1
	AND status <> 'cancelled'
	AND start_time < $3
	AND end_time > $2
`

func (r *appointmentRepository) FindConflicts(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := findConflictsQuery
	args := []interface{}{practitionerID, start, end}
	if excludeID != nil {
		query += " AND id <> $4"
		args = append(args, *excludeID)
	}
	query += " ORDER BY start_time ASC"

	var conflicts []*model.Appointment
	err := r.db.SelectContext(ctx, &conflicts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicting appointments: %w", err)
	}
	return conflicts, nil
}

func (r *appointmentRepository) FindConflictsTx(ctx context.Context, tx *sqlx.Tx, practitionerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Appointment, error) {
	query := findConflictsQuery
	args := []interface{}{practitionerID, start, end}
	if excludeID != nil {
		query += " AND id <> $4"
		args = append(args, *excludeID)
	}
	query += " ORDER BY start_time ASC"

	var conflicts []*model.Appointment
	err := tx.SelectContext(ctx, &conflicts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicting appointments: %w", err)
	}
	return conflicts, nil
}

// LockPractitionerTx takes an advisory lock scoped to the transaction,
// keyed by the practitioner id. Concurrent creates for the same
// practitioner serialize here, so the in-transaction conflict check is
// authoritative.
func (r *appointmentRepository) LockPractitionerTx(ctx context.Context, tx *sqlx.Tx, practitionerID uuid.UUID) error {
	_, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`,
		practitionerID,
	)
	if err != nil {
		return fmt.Errorf("failed to lock practitioner calendar: %w", err)
	}
	return nil
}

func (r *appointmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, practitioner_id, resource_id,
			start_time, end_time, title, notify, notes, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()

	_, err := tx.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.PractitionerID,
		appointment.ResourceID,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Title,
		appointment.Notify,
		appointment.Notes,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`
	var appointment model.Appointment
	err := tx.GetContext(ctx, &appointment, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET start_time = $1, end_time = $2, title = $3, notify = $4,
			notes = $5, status = $6, updated_at = $7
		WHERE id = $8
	`
	appointment.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, query,
		appointment.StartTime,
		appointment.EndTime,
		appointment.Title,
		appointment.Notify,
		appointment.Notes,
		appointment.Status,
		appointment.UpdatedAt,
		appointment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) DeleteLinkedToPlanTx(ctx context.Context, tx *sqlx.Tx, planID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM appointments
		WHERE id IN (
			SELECT appointment_id FROM sessions
			WHERE plan_id = $1 AND appointment_id IS NOT NULL
		)
	`
	result, err := tx.ExecContext(ctx, query, planID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete plan appointments: %w", err)
	}
	return result.RowsAffected()
}
