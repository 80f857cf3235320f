package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, name, email, phone, active, created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check patient existence: %w", err)
	}
	return exists, nil
}

func (r *practitionerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Practitioner, error) {
	query := `
		SELECT id, name, specialty, active, created_at, updated_at
		FROM practitioners
		WHERE id = $1
	`
	var practitioner model.Practitioner
	err := r.db.GetContext(ctx, &practitioner, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFound("practitioner", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get practitioner: %w", err)
	}
	return &practitioner, nil
}

func (r *practitionerRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM practitioners WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check practitioner existence: %w", err)
	}
	return exists, nil
}
