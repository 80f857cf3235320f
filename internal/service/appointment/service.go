// Package appointment implements the appointment lifecycle and the
// side effects it applies to the linked session and its plan. All plan
// counter changes go through the plan service.
package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/directory"
	planservice "github.com/Andres09xZ/FisioLab-app-sub000/internal/service/plan"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/reminder"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
	"github.com/Andres09xZ/FisioLab-app-sub000/pkg/metrics"
)

type Service struct {
	repo      repository.AppointmentRepository
	sessions  repository.SessionRepository
	plans     *planservice.Service
	directory *directory.Service
	reminders reminder.Scheduler
	tx        repository.TxManager
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

func NewService(
	repo repository.AppointmentRepository,
	sessions repository.SessionRepository,
	plans *planservice.Service,
	directorySvc *directory.Service,
	reminders reminder.Scheduler,
	tx repository.TxManager,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:      repo,
		sessions:  sessions,
		plans:     plans,
		directory: directorySvc,
		reminders: reminders,
		tx:        tx,
		logger:    logger,
		metrics:   m,
	}
}

// Create inserts a scheduled appointment. The conflict check runs inside
// the same transaction as the insert, under an advisory lock on the
// practitioner, so two concurrent creates for the same window cannot
// both succeed. When SessionID is set, the pending session is linked in
// the same transaction.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest, sessionID *uuid.UUID) (*model.Appointment, error) {
	if req.PatientID == uuid.Nil {
		return nil, apperrors.NewValidation("patient ID is required")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return nil, apperrors.NewValidation("start and end times are required")
	}
	if !req.StartTime.Before(req.EndTime) {
		return nil, apperrors.NewInvalidRange("start must be before end")
	}

	if err := s.directory.PatientExists(ctx, req.PatientID); err != nil {
		return nil, err
	}
	if req.PractitionerID != nil {
		if err := s.directory.PractitionerExists(ctx, *req.PractitionerID); err != nil {
			return nil, err
		}
	}

	apt := &model.Appointment{
		PatientID:      req.PatientID,
		PractitionerID: req.PractitionerID,
		ResourceID:     req.ResourceID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Title:          req.Title,
		Notify:         req.Notify,
		Notes:          req.Notes,
		Status:         model.AppointmentStatusScheduled,
	}

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		if apt.PractitionerID != nil {
			if err := s.repo.LockPractitionerTx(ctx, tx, *apt.PractitionerID); err != nil {
				return err
			}
			conflicts, err := s.repo.FindConflictsTx(ctx, tx, *apt.PractitionerID, apt.StartTime, apt.EndTime, nil)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				if s.metrics != nil {
					s.metrics.ConflictsDetected.Inc()
				}
				return apperrors.NewConflict(model.NewConflictInfos(conflicts))
			}
		}

		if err := s.repo.CreateTx(ctx, tx, apt); err != nil {
			return err
		}

		if sessionID != nil {
			return s.linkSessionTx(ctx, tx, *sessionID, apt)
		}
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCreated.Inc()
	}

	// Best-effort side channel: a reminder failure never unwinds the
	// committed appointment.
	if apt.Notify && s.reminders != nil {
		if err := s.reminders.Schedule(ctx, apt); err != nil {
			s.logger.Warn().
				Err(err).
				Str("appointment_id", apt.ID.String()).
				Msg("reminder scheduling failed")
		}
	}

	return apt, nil
}

func (s *Service) linkSessionTx(ctx context.Context, tx *sqlx.Tx, sessionID uuid.UUID, apt *model.Appointment) error {
	sess, err := s.sessions.GetForUpdateTx(ctx, tx, sessionID)
	if err != nil {
		return err
	}
	if sess.AppointmentID != nil {
		return apperrors.NewValidation("session is already linked to an appointment")
	}
	if sess.PatientID != apt.PatientID {
		return apperrors.NewValidation("session belongs to a different patient")
	}

	sess.AppointmentID = &apt.ID
	sess.PractitionerID = apt.PractitionerID
	start := apt.StartTime
	sess.ScheduledAt = &start
	sess.Status = model.SessionStatusScheduled
	return s.sessions.UpdateTx(ctx, tx, sess)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// Complete marks the appointment done and, atomically, completes the
// linked session and advances its plan counter. Returns the updated
// appointment, the plan when one was touched, and a "completed/target"
// progress string.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, notes string) (*model.CompleteAppointmentResult, error) {
	result := &model.CompleteAppointmentResult{}

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		apt, err := s.repo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if !apt.CanTransitionTo(model.AppointmentStatusCompleted) {
			return apperrors.NewInvalidTransition(string(apt.Status), string(model.AppointmentStatusCompleted))
		}

		apt.Status = model.AppointmentStatusCompleted
		apt.Notes = mergeNotes(apt.Notes, notes)
		if err := s.repo.UpdateTx(ctx, tx, apt); err != nil {
			return err
		}
		result.Appointment = apt

		sess, err := s.sessions.GetByAppointmentTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if sess == nil {
			return nil
		}

		sess.Status = model.SessionStatusCompleted
		sess.Notes = mergeNotes(sess.Notes, notes)
		if err := s.sessions.UpdateTx(ctx, tx, sess); err != nil {
			return err
		}

		plan, err := s.plans.ApplySessionCompletedTx(ctx, tx, sess.PlanID)
		if err != nil {
			return err
		}
		result.Plan = plan
		result.Progress = fmt.Sprintf("%d/%d", plan.SessionsCompleted, plan.SessionsTarget)
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCompleted.Inc()
	}
	return result, nil
}

// Cancel marks the appointment cancelled and frees its session: the
// session is unlinked, reset to pending with no date, and left available
// for rescheduling. The plan's completed counter never changes here.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.CancelAppointmentResult, error) {
	result := &model.CancelAppointmentResult{}

	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		apt, err := s.repo.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if apt.Status == model.AppointmentStatusCancelled {
			return apperrors.NewAlreadyCancelled()
		}
		if !apt.CanTransitionTo(model.AppointmentStatusCancelled) {
			return apperrors.NewInvalidTransition(string(apt.Status), string(model.AppointmentStatusCancelled))
		}

		if reason == "" {
			reason = "unspecified"
		}
		apt.Status = model.AppointmentStatusCancelled
		apt.Notes = mergeNotes(apt.Notes, "Cancelled: "+reason)
		if err := s.repo.UpdateTx(ctx, tx, apt); err != nil {
			return err
		}
		result.Appointment = apt

		sess, err := s.sessions.GetByAppointmentTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if sess == nil {
			return nil
		}

		sess.AppointmentID = nil
		sess.ScheduledAt = nil
		sess.Status = model.SessionStatusPending
		if err := s.sessions.UpdateTx(ctx, tx, sess); err != nil {
			return err
		}
		result.Session = sess
		return nil
	})
	if err != nil {
		return nil, wrapTxErr(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsCancelled.Inc()
	}
	return result, nil
}

// Delete is an administrative hard delete, outside the patient-facing
// lifecycle.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.repo.DeleteTx(ctx, tx, id)
	})
	return wrapTxErr(err)
}

// mergeNotes appends rather than overwrites, so prior clinical notes
// survive a completion or cancellation.
func mergeNotes(existing, added string) string {
	switch {
	case added == "":
		return existing
	case existing == "":
		return added
	default:
		return existing + "\n" + added
	}
}

// wrapTxErr keeps typed domain errors intact and classifies everything
// else as an operation failure.
func wrapTxErr(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.Code(err) != 0 {
		return err
	}
	return apperrors.NewOperationFailed(err)
}
