// Package plan owns the treatment plan lifecycle and its session
// counters. SessionsCompleted is written here and nowhere else.
package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/directory"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
	"github.com/Andres09xZ/FisioLab-app-sub000/pkg/metrics"
)

type Service struct {
	repo         repository.PlanRepository
	sessions     repository.SessionRepository
	appointments repository.AppointmentRepository
	directory    *directory.Service
	tx           repository.TxManager
	logger       zerolog.Logger
	metrics      *metrics.Metrics
}

func NewService(
	repo repository.PlanRepository,
	sessions repository.SessionRepository,
	appointments repository.AppointmentRepository,
	directorySvc *directory.Service,
	tx repository.TxManager,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		repo:         repo,
		sessions:     sessions,
		appointments: appointments,
		directory:    directorySvc,
		tx:           tx,
		logger:       logger,
		metrics:      m,
	}
}

func (s *Service) CreatePlan(ctx context.Context, req *model.CreatePlanRequest) (*model.TreatmentPlan, error) {
	if req.PatientID == uuid.Nil {
		return nil, apperrors.NewValidation("patient ID is required")
	}
	if req.SessionsTarget < 1 {
		return nil, apperrors.NewValidation("sessions target must be at least 1")
	}
	if err := s.directory.PatientExists(ctx, req.PatientID); err != nil {
		return nil, err
	}

	plan := &model.TreatmentPlan{
		PatientID:         req.PatientID,
		EvaluationID:      req.EvaluationID,
		Objective:         req.Objective,
		SessionsTarget:    req.SessionsTarget,
		SessionsCompleted: 0,
		Status:            model.PlanStatusActive,
		Notes:             req.Notes,
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create treatment plan: %w", err)
	}
	return plan, nil
}

func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*model.TreatmentPlan, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListSessions(ctx context.Context, planID uuid.UUID) ([]*model.Session, error) {
	if _, err := s.repo.Get(ctx, planID); err != nil {
		return nil, err
	}
	return s.sessions.ListByPlan(ctx, planID)
}

// ApplySessionCompletedTx increments the plan's completed counter inside
// the caller's transaction. Exceeding the target is a data-integrity
// fault: it is reported, never clamped, and aborts the caller's
// transaction. Reaching the target finishes the plan.
func (s *Service) ApplySessionCompletedTx(ctx context.Context, tx *sqlx.Tx, planID uuid.UUID) (*model.TreatmentPlan, error) {
	plan, err := s.repo.GetForUpdateTx(ctx, tx, planID)
	if err != nil {
		return nil, err
	}

	if plan.SessionsCompleted+1 > plan.SessionsTarget {
		s.logger.Error().
			Str("plan_id", planID.String()).
			Int("completed", plan.SessionsCompleted).
			Int("target", plan.SessionsTarget).
			Msg("session counter would exceed target")
		return nil, apperrors.NewIntegrityFault(fmt.Sprintf(
			"completing this session would exceed the plan target (%d/%d)",
			plan.SessionsCompleted, plan.SessionsTarget,
		))
	}

	plan.SessionsCompleted++
	if plan.SessionsCompleted == plan.SessionsTarget {
		plan.Status = model.PlanStatusFinished
		if s.metrics != nil {
			s.metrics.PlansFinished.Inc()
		}
	}

	if err := s.repo.UpdateTx(ctx, tx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Finalize forces the plan to finished regardless of the counter, for
// early clinical termination.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID, closingNotes string) (*model.TreatmentPlan, error) {
	plan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	plan.Status = model.PlanStatusFinished
	if closingNotes != "" {
		plan.Notes = appendNote(plan.Notes, closingNotes)
	}
	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ChangeState applies an explicit administrative transition. The reason
// is recorded in the notes under an uppercase state banner.
func (s *Service) ChangeState(ctx context.Context, id uuid.UUID, newState model.PlanStatus, reason string) (*model.TreatmentPlan, error) {
	if !model.ValidPlanStatus(newState) {
		return nil, apperrors.NewValidation(fmt.Sprintf("invalid plan state: %s", newState))
	}

	plan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	plan.Status = newState
	banner := strings.ToUpper(string(newState))
	if reason != "" {
		plan.Notes = appendNote(plan.Notes, fmt.Sprintf("%s: %s", banner, reason))
	} else {
		plan.Notes = appendNote(plan.Notes, banner)
	}

	if err := s.repo.Update(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes the plan and cascades to its sessions and their linked
// appointments, all in one transaction. Refused when the plan has
// completed sessions unless force is set.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, force bool) (*model.DeletePlanResult, error) {
	plan, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if plan.SessionsCompleted > 0 && !force {
		return nil, apperrors.NewHasCompletedSessions(plan.SessionsCompleted)
	}

	result := &model.DeletePlanResult{}
	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		deletedAppointments, err := s.appointments.DeleteLinkedToPlanTx(ctx, tx, id)
		if err != nil {
			return err
		}
		deletedSessions, err := s.sessions.DeleteByPlanTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := s.repo.DeleteTx(ctx, tx, id); err != nil {
			return err
		}
		result.DeletedAppointments = int(deletedAppointments)
		result.DeletedSessions = int(deletedSessions)
		return nil
	})
	if err != nil {
		if apperrors.Code(err) != 0 {
			return nil, err
		}
		return nil, apperrors.NewOperationFailed(err)
	}

	if s.metrics != nil {
		s.metrics.PlansDeleted.Inc()
	}
	s.logger.Info().
		Str("plan_id", id.String()).
		Int("sessions", result.DeletedSessions).
		Int("appointments", result.DeletedAppointments).
		Msg("treatment plan deleted")
	return result, nil
}

func appendNote(existing, added string) string {
	if existing == "" {
		return added
	}
	return existing + "\n" + added
}
