package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository/memory"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/service/directory"
	planservice "github.com/Andres09xZ/FisioLab-app-sub000/internal/service/plan"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

type fakeReminders struct {
	scheduled []uuid.UUID
}

func (f *fakeReminders) Schedule(ctx context.Context, apt *model.Appointment) error {
	f.scheduled = append(f.scheduled, apt.ID)
	return nil
}

type testEnv struct {
	store     *memory.Store
	svc       *Service
	plans     *planservice.Service
	reminders *fakeReminders

	patientID      uuid.UUID
	practitionerID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	dir := directory.NewService(store.Patients(), store.Practitioners())
	logger := zerolog.Nop()

	plans := planservice.NewService(store.Plans(), store.Sessions(), store.Appointments(),
		dir, store, logger, nil)
	reminders := &fakeReminders{}
	svc := NewService(store.Appointments(), store.Sessions(), plans, dir, reminders,
		store, logger, nil)

	env := &testEnv{
		store:          store,
		svc:            svc,
		plans:          plans,
		reminders:      reminders,
		patientID:      uuid.New(),
		practitionerID: uuid.New(),
	}
	store.AddPatient(model.Patient{Base: model.Base{ID: env.patientID}, Name: "Ana Souza", Active: true})
	store.AddPractitioner(model.Practitioner{Base: model.Base{ID: env.practitionerID}, Name: "Dr. Lima", Active: true})
	return env
}

func (e *testEnv) createRequest(start, end time.Time) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		PatientID:      e.patientID,
		PractitionerID: &e.practitionerID,
		StartTime:      start,
		EndTime:        end,
	}
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

func (e *testEnv) seedLinkedSession(planID, appointmentID uuid.UUID, at time.Time) model.Session {
	sess := model.Session{
		Base:           model.Base{ID: uuid.New()},
		PlanID:         planID,
		PatientID:      e.patientID,
		PractitionerID: &e.practitionerID,
		AppointmentID:  &appointmentID,
		ScheduledAt:    &at,
		Status:         model.SessionStatusScheduled,
	}
	e.store.AddSession(sess)
	return sess
}

var (
	slotStart = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	slotEnd   = time.Date(2025, 1, 6, 10, 45, 0, 0, time.UTC)
)

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("books a free slot", func(t *testing.T) {
		env := newTestEnv(t)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
		assert.NotEqual(t, uuid.Nil, apt.ID)
	})

	t.Run("rejects an overlapping slot with the conflict set", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)

		_, err = env.svc.Create(ctx, env.createRequest(
			slotStart.Add(15*time.Minute), slotEnd.Add(15*time.Minute)), nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrConflict, apperrors.Code(err))

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		conflicts, ok := appErr.Details.([]model.ConflictInfo)
		require.True(t, ok)
		require.Len(t, conflicts, 1)
		assert.Equal(t, first.ID, conflicts[0].ID)
	})

	t.Run("allows back-to-back slots", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)

		_, err = env.svc.Create(ctx, env.createRequest(slotEnd, slotEnd.Add(45*time.Minute)), nil)
		assert.NoError(t, err)
	})

	t.Run("cancelled appointments free the slot", func(t *testing.T) {
		env := newTestEnv(t)

		first, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		_, err = env.svc.Cancel(ctx, first.ID, "")
		require.NoError(t, err)

		_, err = env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		assert.NoError(t, err)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.Create(ctx, env.createRequest(slotEnd, slotStart), nil)
		assert.Equal(t, apperrors.ErrInvalidRange, apperrors.Code(err))
	})

	t.Run("rejects unknown patient", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.createRequest(slotStart, slotEnd)
		req.PatientID = uuid.New()

		_, err := env.svc.Create(ctx, req, nil)
		assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))
	})

	t.Run("schedules a reminder when notify is set", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.createRequest(slotStart, slotEnd)
		req.Notify = true

		apt, err := env.svc.Create(ctx, req, nil)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{apt.ID}, env.reminders.scheduled)
	})

	t.Run("no reminder without notify", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		assert.Empty(t, env.reminders.scheduled)
	})
}

func TestCreate_LinksPendingSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	plan := env.seedPlan(3, 0)

	pending := model.Session{
		Base:      model.Base{ID: uuid.New()},
		PlanID:    plan.ID,
		PatientID: env.patientID,
		Status:    model.SessionStatusPending,
	}
	env.store.AddSession(pending)

	apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), &pending.ID)
	require.NoError(t, err)

	sess, err := env.store.Sessions().Get(ctx, pending.ID)
	require.NoError(t, err)
	require.NotNil(t, sess.AppointmentID)
	assert.Equal(t, apt.ID, *sess.AppointmentID)
	assert.Equal(t, model.SessionStatusScheduled, sess.Status)
	require.NotNil(t, sess.ScheduledAt)
	assert.True(t, sess.ScheduledAt.Equal(slotStart))
}

func TestCreate_LinkRejectsForeignSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	plan := env.seedPlan(3, 0)

	otherPatient := uuid.New()
	env.store.AddPatient(model.Patient{Base: model.Base{ID: otherPatient}, Name: "Outro", Active: true})
	foreign := model.Session{
		Base:      model.Base{ID: uuid.New()},
		PlanID:    plan.ID,
		PatientID: otherPatient,
		Status:    model.SessionStatusPending,
	}
	env.store.AddSession(foreign)

	_, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), &foreign.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrValidation, apperrors.Code(err))

	// The failed link rolled back the appointment insert too.
	appointments, err := env.store.Appointments().List(ctx, &model.AppointmentFilters{PatientID: env.patientID})
	require.NoError(t, err)
	assert.Empty(t, appointments)
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("completes session and advances the plan", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(3, 1)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		env.seedLinkedSession(plan.ID, apt.ID, slotStart)

		result, err := env.svc.Complete(ctx, apt.ID, "good progress")
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCompleted, result.Appointment.Status)
		require.NotNil(t, result.Plan)
		assert.Equal(t, 2, result.Plan.SessionsCompleted)
		assert.Equal(t, model.PlanStatusActive, result.Plan.Status)
		assert.Equal(t, "2/3", result.Progress)
	})

	t.Run("finishing the last session finishes the plan", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(3, 2)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		env.seedLinkedSession(plan.ID, apt.ID, slotStart)

		result, err := env.svc.Complete(ctx, apt.ID, "")
		require.NoError(t, err)
		assert.Equal(t, model.PlanStatusFinished, result.Plan.Status)
		assert.Equal(t, "3/3", result.Progress)
	})

	t.Run("unlinked appointment completes without a plan", func(t *testing.T) {
		env := newTestEnv(t)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)

		result, err := env.svc.Complete(ctx, apt.ID, "")
		require.NoError(t, err)
		assert.Nil(t, result.Plan)
		assert.Empty(t, result.Progress)
	})

	t.Run("completing twice is an invalid transition", func(t *testing.T) {
		env := newTestEnv(t)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)

		_, err = env.svc.Complete(ctx, apt.ID, "")
		require.NoError(t, err)
		_, err = env.svc.Complete(ctx, apt.ID, "")
		assert.Equal(t, apperrors.ErrInvalidTransition, apperrors.Code(err))
	})

	t.Run("counter overflow is an integrity fault and rolls back", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(2, 2)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		sess := env.seedLinkedSession(plan.ID, apt.ID, slotStart)

		_, err = env.svc.Complete(ctx, apt.ID, "")
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrIntegrityFault, apperrors.Code(err))

		// Nothing moved: the whole transaction unwound.
		got, err := env.store.Appointments().Get(ctx, apt.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusScheduled, got.Status)

		gotSess, err := env.store.Sessions().Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusScheduled, gotSess.Status)

		gotPlan, err := env.store.Plans().Get(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, gotPlan.SessionsCompleted)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("frees the session without touching the counter", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(3, 1)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		sess := env.seedLinkedSession(plan.ID, apt.ID, slotStart)

		result, err := env.svc.Cancel(ctx, apt.ID, "patient called in sick")
		require.NoError(t, err)
		assert.Equal(t, model.AppointmentStatusCancelled, result.Appointment.Status)
		assert.Contains(t, result.Appointment.Notes, "Cancelled: patient called in sick")

		require.NotNil(t, result.Session)
		assert.Equal(t, sess.ID, result.Session.ID)
		assert.Nil(t, result.Session.AppointmentID)
		assert.Nil(t, result.Session.ScheduledAt)
		assert.Equal(t, model.SessionStatusPending, result.Session.Status)

		gotPlan, err := env.store.Plans().Get(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, gotPlan.SessionsCompleted)
	})

	t.Run("cancelling twice reports already cancelled", func(t *testing.T) {
		env := newTestEnv(t)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)

		_, err = env.svc.Cancel(ctx, apt.ID, "")
		require.NoError(t, err)
		_, err = env.svc.Cancel(ctx, apt.ID, "")
		assert.Equal(t, apperrors.ErrAlreadyCancelled, apperrors.Code(err))
	})

	t.Run("a completed appointment cannot be cancelled", func(t *testing.T) {
		env := newTestEnv(t)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		_, err = env.svc.Complete(ctx, apt.ID, "")
		require.NoError(t, err)

		_, err = env.svc.Cancel(ctx, apt.ID, "")
		assert.Equal(t, apperrors.ErrInvalidTransition, apperrors.Code(err))
	})

	t.Run("freed session can be rebooked", func(t *testing.T) {
		env := newTestEnv(t)
		plan := env.seedPlan(3, 0)

		apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
		require.NoError(t, err)
		sess := env.seedLinkedSession(plan.ID, apt.ID, slotStart)

		_, err = env.svc.Cancel(ctx, apt.ID, "reschedule")
		require.NoError(t, err)

		newStart := slotStart.AddDate(0, 0, 1)
		rebooked, err := env.svc.Create(ctx, env.createRequest(newStart, newStart.Add(45*time.Minute)), &sess.ID)
		require.NoError(t, err)

		got, err := env.store.Sessions().Get(ctx, sess.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AppointmentID)
		assert.Equal(t, rebooked.ID, *got.AppointmentID)
		assert.Equal(t, model.SessionStatusScheduled, got.Status)
		require.NotNil(t, got.ScheduledAt)
		assert.True(t, got.ScheduledAt.Equal(newStart))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	apt, err := env.svc.Create(ctx, env.createRequest(slotStart, slotEnd), nil)
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, apt.ID))

	_, err = env.svc.Get(ctx, apt.ID)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.Code(err))
}
