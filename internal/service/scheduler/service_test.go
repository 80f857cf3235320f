package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository/memory"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/directory"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

type testEnv struct {
	store          *memory.Store
	svc            *Service
	patientID      uuid.UUID
	practitionerID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	dir := directory.NewService(store.Patients(), store.Practitioners())
	svc := NewService(store.Appointments(), store.Sessions(), store.Plans(), dir,
		store, zerolog.Nop(), nil)

	env := &testEnv{
		store:          store,
		svc:            svc,
		patientID:      uuid.New(),
		practitionerID: uuid.New(),
	}
	store.AddPatient(model.Patient{Base: model.Base{ID: env.patientID}, Name: "Ana Souza", Active: true})
	store.AddPractitioner(model.Practitioner{Base: model.Base{ID: env.practitionerID}, Name: "Dr. Lima", Active: true})
	return env
}

func (e *testEnv) seedPlan(target, completed int) model.TreatmentPlan {
	plan := model.TreatmentPlan{
		Base:              model.Base{ID: uuid.New()},
		PatientID:         e.patientID,
		SessionsTarget:    target,
		SessionsCompleted: completed,
		Status:            model.PlanStatusActive,
	}
	e.store.AddPlan(plan)
	return plan
}

func TestGenerateRecurring(t *testing.T) {
	ctx := context.Background()

	// 2025-01-06 is a Monday.
	request := func() *model.GenerateRecurringRequest {
		return &model.GenerateRecurringRequest{
			StartDate:      "2025-01-06",
			DaysOfWeek:     []int{1, 3}, // Monday, Wednesday
			TimeOfDay:      "10:00",
			PractitionerID: nil,
		}
	}

	t.Run("walks the weekly pattern from the start date inclusive", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(3, 0)
		req := request()
		req.PractitionerID = &env.practitionerID

		result, err := env.svc.GenerateRecurring(ctx, plan.ID, req)
		require.NoError(t, err)
		require.Len(t, result.Created, 3)
		assert.Empty(t, result.Skipped)

		wantStarts := []time.Time{
			time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),  // Mon
			time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC),  // Wed
			time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC), // next Mon
		}
		for i, pair := range result.Created {
			assert.True(t, pair.Appointment.StartTime.Equal(wantStarts[i]),
				"pair %d start = %v", i, pair.Appointment.StartTime)
			assert.True(t, pair.Appointment.EndTime.Equal(wantStarts[i].Add(45*time.Minute)))
			assert.Equal(t, fmt.Sprintf("Session %d of 3", i+1), pair.Appointment.Title)
			assert.Equal(t, model.AppointmentStatusScheduled, pair.Appointment.Status)

			require.NotNil(t, pair.Session.AppointmentID)
			assert.Equal(t, pair.Appointment.ID, *pair.Session.AppointmentID)
			assert.Equal(t, plan.ID, pair.Session.PlanID)
			assert.Equal(t, model.SessionStatusScheduled, pair.Session.Status)
			require.NotNil(t, pair.Session.ScheduledAt)
			assert.True(t, pair.Session.ScheduledAt.Equal(wantStarts[i]))
		}
	})

	t.Run("only generates the remaining sessions", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(5, 3)

		result, err := env.svc.GenerateRecurring(ctx, plan.ID, request())
		require.NoError(t, err)
		assert.Len(t, result.Created, 2)
		assert.Equal(t, "Session 1 of 2", result.Created[0].Appointment.Title)
	})

	t.Run("skips conflicting slots and reports them", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(3, 0)
		req := request()
		req.PractitionerID = &env.practitionerID

		// Occupy the Wednesday slot.
		busyStart := time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC)
		env.store.AddAppointment(model.Appointment{
			Base:           model.Base{ID: uuid.New()},
			PatientID:      uuid.New(),
			PractitionerID: &env.practitionerID,
			StartTime:      busyStart,
			EndTime:        busyStart.Add(30 * time.Minute),
			Status:         model.AppointmentStatusScheduled,
		})

		result, err := env.svc.GenerateRecurring(ctx, plan.ID, req)
		require.NoError(t, err)
		require.Len(t, result.Created, 3)
		require.Len(t, result.Skipped, 1)
		assert.True(t, result.Skipped[0].Start.Equal(busyStart))

		// The walk continued past the conflict: Mon 6, Mon 13, Wed 15.
		wantStarts := []time.Time{
			time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		}
		for i, pair := range result.Created {
			assert.True(t, pair.Appointment.StartTime.Equal(wantStarts[i]),
				"pair %d start = %v", i, pair.Appointment.StartTime)
		}
	})

	t.Run("honors a custom duration", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(1, 0)
		req := request()
		req.DurationMinutes = 60

		result, err := env.svc.GenerateRecurring(ctx, plan.ID, req)
		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		apt := result.Created[0].Appointment
		assert.Equal(t, time.Hour, apt.EndTime.Sub(apt.StartTime))
	})

	t.Run("finished plan has nothing to generate", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(3, 3)

		_, err := env.svc.GenerateRecurring(ctx, plan.ID, request())
		assert.Equal(t, apperrors.ErrPlanAlreadyComplete, apperrors.Code(err))
	})

	t.Run("rejects malformed inputs", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(3, 0)

		req := request()
		req.StartDate = "06/01/2025"
		_, err := env.svc.GenerateRecurring(ctx, plan.ID, req)
		assert.Equal(t, apperrors.ErrValidation, apperrors.Code(err))

		req = request()
		req.TimeOfDay = "10am"
		_, err = env.svc.GenerateRecurring(ctx, plan.ID, req)
		assert.Equal(t, apperrors.ErrValidation, apperrors.Code(err))

		req = request()
		req.DaysOfWeek = []int{7}
		_, err = env.svc.GenerateRecurring(ctx, plan.ID, req)
		assert.Equal(t, apperrors.ErrValidation, apperrors.Code(err))

		req = request()
		req.DaysOfWeek = nil
		_, err = env.svc.GenerateRecurring(ctx, plan.ID, req)
		assert.Equal(t, apperrors.ErrValidation, apperrors.Code(err))
	})

	t.Run("unknown plan", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.GenerateRecurring(ctx, uuid.New(), request())
		assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))
	})
}

func TestGeneratePending(t *testing.T) {
	ctx := context.Background()

	t.Run("creates bare pending sessions", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(5, 0)

		sessions, err := env.svc.GeneratePending(ctx, plan.ID, 3)
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		for _, sess := range sessions {
			assert.Equal(t, model.SessionStatusPending, sess.Status)
			assert.Nil(t, sess.AppointmentID)
			assert.Nil(t, sess.ScheduledAt)
			assert.Equal(t, plan.ID, sess.PlanID)
		}
	})

	t.Run("caps the count at the remaining sessions", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(5, 3)

		sessions, err := env.svc.GeneratePending(ctx, plan.ID, 10)
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
	})

	t.Run("zero count means all remaining", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(4, 1)

		sessions, err := env.svc.GeneratePending(ctx, plan.ID, 0)
		require.NoError(t, err)
		assert.Len(t, sessions, 3)
	})

	t.Run("finished plan is refused", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(2, 2)

		_, err := env.svc.GeneratePending(ctx, plan.ID, 1)
		assert.Equal(t, apperrors.ErrPlanAlreadyComplete, apperrors.Code(err))
	})
}
