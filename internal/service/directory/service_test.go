package directory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository/memory"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

func TestExistenceChecks(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Patients(), store.Practitioners())

	patientID := uuid.New()
	practitionerID := uuid.New()
	store.AddPatient(model.Patient{Base: model.Base{ID: patientID}, Name: "Ana Souza"})
	store.AddPractitioner(model.Practitioner{Base: model.Base{ID: practitionerID}, Name: "Dr. Lima"})

	assert.NoError(t, svc.PatientExists(ctx, patientID))
	assert.NoError(t, svc.PractitionerExists(ctx, practitionerID))

	err := svc.PatientExists(ctx, uuid.New())
	assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))
	err = svc.PractitionerExists(ctx, uuid.New())
	assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))
}

func TestNegativeAnswersAreNotCached(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Patients(), store.Practitioners())

	id := uuid.New()
	require.Error(t, svc.PatientExists(ctx, id))

	// The record shows up as soon as it is created.
	store.AddPatient(model.Patient{Base: model.Base{ID: id}, Name: "Ana Souza"})
	assert.NoError(t, svc.PatientExists(ctx, id))
}
