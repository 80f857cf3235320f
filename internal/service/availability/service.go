// Package availability implements the interval overlap check against a
// practitioner's calendar.
package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

type Service struct {
	repo repository.AppointmentRepository
}

func NewService(repo repository.AppointmentRepository) *Service {
	return &Service{repo: repo}
}

// CheckAvailability reports whether [start, end) is free for the
// practitioner and returns the full conflict set when it is not.
// excludeID lets an appointment being rescheduled ignore itself.
// Read-only against committed state; the authoritative check happens
// inside the create transaction.
func (s *Service) CheckAvailability(ctx context.Context, practitionerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, []*model.Appointment, error) {
	if !start.Before(end) {
		return false, nil, apperrors.NewInvalidRange("start must be before end")
	}

	conflicts, err := s.repo.FindConflicts(ctx, practitionerID, start, end, excludeID)
	if err != nil {
		return false, nil, err
	}
	return len(conflicts) == 0, conflicts, nil
}

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any instant. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
