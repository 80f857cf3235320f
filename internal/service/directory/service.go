// Package directory answers read-only existence checks against the
// patient and practitioner records owned by the surrounding CRUD layer.
package directory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

const (
	cacheTTL        = 5 * time.Minute
	cleanupInterval = 15 * time.Minute
)

type Service struct {
	patients      repository.PatientRepository
	practitioners repository.PractitionerRepository
	cache         *cache.Cache
}

func NewService(patients repository.PatientRepository, practitioners repository.PractitionerRepository) *Service {
	return &Service{
		patients:      patients,
		practitioners: practitioners,
		cache:         cache.New(cacheTTL, cleanupInterval),
	}
}

// PatientExists returns NotFound when the patient is missing. Positive
// answers are cached; negative ones are not, so a record created moments
// later is seen immediately.
func (s *Service) PatientExists(ctx context.Context, id uuid.UUID) error {
	key := "patient:" + id.String()
	if _, found := s.cache.Get(key); found {
		return nil
	}

	exists, err := s.patients.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("patient", nil)
	}

	s.cache.Set(key, struct{}{}, cache.DefaultExpiration)
	return nil
}

// PractitionerExists returns NotFound when the practitioner is missing.
func (s *Service) PractitionerExists(ctx context.Context, id uuid.UUID) error {
	key := "practitioner:" + id.String()
	if _, found := s.cache.Get(key); found {
		return nil
	}

	exists, err := s.practitioners.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NewNotFound("practitioner", nil)
	}

	s.cache.Set(key, struct{}{}, cache.DefaultExpiration)
	return nil
}
