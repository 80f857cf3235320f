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

const planColumns = `
	id, patient_id, evaluation_id, objective,
	sessions_target, sessions_completed, status, notes,
	created_at, updated_at
`

func (r *planRepository) Create(ctx context.Context, plan *model.TreatmentPlan) error {
	query := `
		INSERT INTO treatment_plans (
			id, patient_id, evaluation_id, objective,
			sessions_target, sessions_completed, status, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	plan.CreatedAt = time.Now()
	plan.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		plan.ID,
		plan.PatientID,
		plan.EvaluationID,
		plan.Objective,
		plan.SessionsTarget,
		plan.SessionsCompleted,
		plan.Status,
		plan.Notes,
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create treatment plan: %w", err)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id uuid.UUID) (*model.TreatmentPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM treatment_plans
		WHERE id = $1
	`
	var plan model.TreatmentPlan
	err := r.db.GetContext(ctx, &plan, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("treatment plan", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment plan: %w", err)
	}
	return &plan, nil
}

const updatePlanQuery = `
	UPDATE treatment_plans
	SET objective = $1, sessions_target = $2, sessions_completed = $3,
		status = $4, notes = $5, updated_at = $6
	WHERE id = $7
`

func (r *planRepository) Update(ctx context.Context, plan *model.TreatmentPlan) error {
	plan.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, updatePlanQuery,
		plan.Objective,
		plan.SessionsTarget,
		plan.SessionsCompleted,
		plan.Status,
		plan.Notes,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update treatment plan: %w", err)
	}
	return checkPlanAffected(result)
}

func (r *planRepository) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*model.TreatmentPlan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM treatment_plans
		WHERE id = $1
		FOR UPDATE
	`
	var plan model.TreatmentPlan
	err := tx.GetContext(ctx, &plan, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("treatment plan", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment plan: %w", err)
	}
	return &plan, nil
}

func (r *planRepository) UpdateTx(ctx context.Context, tx *sqlx.Tx, plan *model.TreatmentPlan) error {
	plan.UpdatedAt = time.Now()
	result, err := tx.ExecContext(ctx, updatePlanQuery,
		plan.Objective,
		plan.SessionsTarget,
		plan.SessionsCompleted,
		plan.Status,
		plan.Notes,
		plan.UpdatedAt,
		plan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update treatment plan: %w", err)
	}
	return checkPlanAffected(result)
}

func (r *planRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `DELETE FROM treatment_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete treatment plan: %w", err)
	}
	return checkPlanAffected(result)
}

func checkPlanAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NewNotFound("treatment plan", nil)
	}
	return nil
}
