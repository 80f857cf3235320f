package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/internal/repository/memory"
	apperrors "github.com/Andres09xZ/FisioLab-app-sub000/pkg/errors"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	tests := []struct {
		name string
		a    [2]time.Time
		b    [2]time.Time
		want bool
	}{
		{"partial overlap", [2]time.Time{at(0), at(60)}, [2]time.Time{at(30), at(90)}, true},
		{"containment", [2]time.Time{at(0), at(60)}, [2]time.Time{at(15), at(45)}, true},
		{"identical", [2]time.Time{at(0), at(60)}, [2]time.Time{at(0), at(60)}, true},
		{"touching end to start", [2]time.Time{at(0), at(60)}, [2]time.Time{at(60), at(120)}, false},
		{"touching start to end", [2]time.Time{at(60), at(120)}, [2]time.Time{at(0), at(60)}, false},
		{"disjoint", [2]time.Time{at(0), at(30)}, [2]time.Time{at(90), at(120)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.a[0], tt.a[1], tt.b[0], tt.b[1])
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store.Appointments())

	practitionerID := uuid.New()
	busy := model.Appointment{
		Base:           model.Base{ID: uuid.New()},
		PatientID:      uuid.New(),
		PractitionerID: &practitionerID,
		StartTime:      time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
		EndTime:        time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC),
		Status:         model.AppointmentStatusScheduled,
	}
	store.AddAppointment(busy)

	t.Run("overlapping slot is unavailable", func(t *testing.T) {
		available, conflicts, err := svc.CheckAvailability(ctx, practitionerID,
			time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC),
			time.Date(2025, 1, 6, 11, 30, 0, 0, time.UTC), nil)
		require.NoError(t, err)
		assert.False(t, available)
		require.Len(t, conflicts, 1)
		assert.Equal(t, busy.ID, conflicts[0].ID)
	})

	t.Run("touching endpoint is available", func(t *testing.T) {
		available, conflicts, err := svc.CheckAvailability(ctx, practitionerID,
			time.Date(2025, 1, 6, 11, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC), nil)
		require.NoError(t, err)
		assert.True(t, available)
		assert.Empty(t, conflicts)
	})

	t.Run("other practitioner is unaffected", func(t *testing.T) {
		available, _, err := svc.CheckAvailability(ctx, uuid.New(),
			busy.StartTime, busy.EndTime, nil)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("cancelled appointments do not block", func(t *testing.T) {
		cancelled := busy
		cancelled.ID = uuid.New()
		cancelled.StartTime = time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)
		cancelled.EndTime = time.Date(2025, 1, 7, 11, 0, 0, 0, time.UTC)
		cancelled.Status = model.AppointmentStatusCancelled
		store.AddAppointment(cancelled)

		available, _, err := svc.CheckAvailability(ctx, practitionerID,
			cancelled.StartTime, cancelled.EndTime, nil)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("exclude ignores the named appointment", func(t *testing.T) {
		available, _, err := svc.CheckAvailability(ctx, practitionerID,
			busy.StartTime, busy.EndTime, &busy.ID)
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		_, _, err := svc.CheckAvailability(ctx, practitionerID,
			busy.EndTime, busy.StartTime, nil)
		assert.Equal(t, apperrors.ErrInvalidRange, apperrors.Code(err))
	})

	t.Run("zero-length range is rejected", func(t *testing.T) {
		_, _, err := svc.CheckAvailability(ctx, practitionerID,
			busy.StartTime, busy.StartTime, nil)
		assert.Equal(t, apperrors.ErrInvalidRange, apperrors.Code(err))
	})
}
