// Package scheduler generates the remaining sessions of a treatment
// plan: either placed on the calendar from a weekly pattern, or as bare
// pending sessions reserved for later placement.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/directory"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
	"github.com/Andres09xZ/FisioLab-app-sub000/pkg/metrics"
)

const (
	DefaultDurationMinutes = 45

	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// Upper bound on the calendar walk. With a non-empty weekday set the
	// walk terminates long before this; the bound only guards against a
	// calendar saturated with conflicts.
	maxWalkDays = 731
)

type Service struct {
	appointments repository.AppointmentRepository
	sessions     repository.SessionRepository
	plans        repository.PlanRepository
	directory    *directory.Service
	tx           repository.TxManager
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

func NewService(
	appointments repository.AppointmentRepository,
	sessions repository.SessionRepository,
	plans repository.PlanRepository,
	directorySvc *directory.Service,
	tx repository.TxManager,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		appointments: appointments,
		sessions:     sessions,
		plans:        plans,
		directory:    directorySvc,
		tx:           tx,
		logger:       logger,
		metrics:      m,
	}
}

// GenerateRecurring walks the calendar forward from the start date (the
// start date itself included) and creates one appointment+session pair
// on every matching weekday (0=Sunday..6=Saturday) until the plan's
// remaining session count is satisfied. All pairs are created in one
// transaction. Slots that collide with an existing appointment for the
// practitioner are skipped and reported in the result; the walk
// continues until the count is satisfied.
func (s *Service) GenerateRecurring(ctx context.Context, planID uuid.UUID, req *model.GenerateRecurringRequest) (*model.GenerateRecurringResult, error) {
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, apperrors.NewValidation("start_date must be YYYY-MM-DD")
	}
	timeOfDay, err := time.Parse(timeLayout, req.TimeOfDay)
	if err != nil {
		return nil, apperrors.NewValidation("time_of_day must be HH:MM")
	}
	if len(req.DaysOfWeek) == 0 {
		return nil, apperrors.NewValidation("days_of_week must not be empty")
	}
	days := make(map[time.Weekday]bool, len(req.DaysOfWeek))
	for _, d := range req.DaysOfWeek {
		if d < 0 || d > 6 {
			return nil, apperrors.NewValidation("days_of_week values must be 0 (Sunday) through 6 (Saturday)")
		}
		days[time.Weekday(d)] = true
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	if req.DurationMinutes == 0 {
		duration = DefaultDurationMinutes * time.Minute
	}

	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	remaining := plan.SessionsRemaining()
	if remaining <= 0 {
		return nil, apperrors.NewPlanAlreadyComplete()
	}

	if req.PractitionerID != nil {
		if err := s.directory.PractitionerExists(ctx, *req.PractitionerID); err != nil {
			return nil, err
		}
	}

	result := &model.GenerateRecurringResult{}
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if req.PractitionerID != nil {
			if err := s.appointments.LockPractitionerTx(ctx, tx, *req.PractitionerID); err != nil {
				return err
			}
		}

		total := remaining
		created := 0
		date := startDate
		for walked := 0; created < total; walked++ {
			if walked >= maxWalkDays {
				return apperrors.NewOperationFailed(fmt.Errorf(
					"could not place %d session(s) within %d days", total-created, maxWalkDays))
			}
			if !days[date.Weekday()] {
				date = date.AddDate(0, 0, 1)
				continue
			}

			slotStart := time.Date(
				date.Year(), date.Month(), date.Day(),
				timeOfDay.Hour(), timeOfDay.Minute(), 0, 0, date.Location(),
			)
			slotEnd := slotStart.Add(duration)

			if req.PractitionerID != nil {
				conflicts, err := s.appointments.FindConflictsTx(ctx, tx, *req.PractitionerID, slotStart, slotEnd, nil)
				if err != nil {
					return err
				}
				if len(conflicts) > 0 {
					result.Skipped = append(result.Skipped, model.TimeSlot{Start: slotStart, End: slotEnd})
					date = date.AddDate(0, 0, 1)
					continue
				}
			}

			pair, err := s.createPairTx(ctx, tx, plan, req.PractitionerID, slotStart, slotEnd, created+1, total)
			if err != nil {
				return err
			}
			result.Created = append(result.Created, *pair)
			created++
			date = date.AddDate(0, 0, 1)
		}
		return nil
	})
	if err != nil {
		if apperrors.Code(err) != 0 {
			return nil, err
		}
		return nil, apperrors.NewOperationFailed(err)
	}

	if s.metrics != nil {
		s.metrics.SessionsGenerated.Add(float64(len(result.Created)))
		s.metrics.SlotsSkipped.Add(float64(len(result.Skipped)))
	}
	if len(result.Skipped) > 0 {
		s.logger.Warn().
			Str("plan_id", planID.String()).
			Int("skipped", len(result.Skipped)).
			Msg("recurring generation skipped conflicting slots")
	}
	return result, nil
}

func (s *Service) createPairTx(ctx context.Context, tx *sqlx.Tx, plan *model.TreatmentPlan, practitionerID *uuid.UUID, start, end time.Time, index, total int) (*model.GeneratedPair, error) {
	apt := &model.Appointment{
		PatientID:      plan.PatientID,
		PractitionerID: practitionerID,
		StartTime:      start,
		EndTime:        end,
		Title:          fmt.Sprintf("Session %d of %d", index, total),
		Status:         model.AppointmentStatusScheduled,
	}
	if err := s.appointments.CreateTx(ctx, tx, apt); err != nil {
		return nil, err
	}

	scheduledAt := start
	sess := &model.Session{
		PlanID:         plan.ID,
		PatientID:      plan.PatientID,
		PractitionerID: practitionerID,
		AppointmentID:  &apt.ID,
		ScheduledAt:    &scheduledAt,
		Status:         model.SessionStatusScheduled,
	}
	if err := s.sessions.CreateTx(ctx, tx, sess); err != nil {
		return nil, err
	}

	return &model.GeneratedPair{Session: sess, Appointment: apt}, nil
}

// GeneratePending creates bare pending sessions with no appointment and
// no date, letting a plan reserve slots before calendar placement. The
// count defaults to, and is capped at, the plan's remaining sessions.
func (s *Service) GeneratePending(ctx context.Context, planID uuid.UUID, count int) ([]*model.Session, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	remaining := plan.SessionsRemaining()
	if remaining <= 0 {
		return nil, apperrors.NewPlanAlreadyComplete()
	}
	if count <= 0 || count > remaining {
		count = remaining
	}

	sessions := make([]*model.Session, 0, count)
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		for i := 0; i < count; i++ {
			sess := &model.Session{
				PlanID:    plan.ID,
				PatientID: plan.PatientID,
				Status:    model.SessionStatusPending,
			}
			if err := s.sessions.CreateTx(ctx, tx, sess); err != nil {
				return err
			}
			sessions = append(sessions, sess)
		}
		return nil
	})
	if err != nil {
		if apperrors.Code(err) != 0 {
			return nil, err
		}
		return nil, apperrors.NewOperationFailed(err)
	}
	return sessions, nil
}
