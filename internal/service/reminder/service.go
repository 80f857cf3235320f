// Package reminder publishes appointment reminder events on the message
// broker. Delivery (SMS, push) is handled by an external consumer; a
// publish failure is logged and never fails the calling operation.
package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Andres09xZ/FisioLab-app-sub000/internal/model"
	"github.com/Andres09xZ/FisioLab-app-sub000/pkg/messaging"
	"github.com/Andres09xZ/FisioLab-app-sub000/pkg/metrics"
)

const Channel = "appointment.reminders"

const defaultLeadTime = 24 * time.Hour

// Scheduler arranges a reminder for an appointment.
type Scheduler interface {
	Schedule(ctx context.Context, appointment *model.Appointment) error
}

type Service struct {
	broker   messaging.Broker
	leadTime time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewService(broker messaging.Broker, leadTime time.Duration, logger zerolog.Logger, m *metrics.Metrics) *Service {
	if leadTime <= 0 {
		leadTime = defaultLeadTime
	}
	return &Service{
		broker:   broker,
		leadTime: leadTime,
		logger:   logger,
		metrics:  m,
	}
}

func (s *Service) Schedule(ctx context.Context, appointment *model.Appointment) error {
	if s.broker == nil {
		return nil
	}

	event := &model.ReminderEvent{
		ID:            uuid.New(),
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		StartTime:     appointment.StartTime,
		RemindAt:      appointment.StartTime.Add(-s.leadTime),
		CreatedAt:     time.Now(),
	}

	if err := s.broker.Publish(ctx, Channel, event); err != nil {
		if s.metrics != nil {
			s.metrics.ReminderPublishFailed.Inc()
		}
		s.logger.Warn().
			Err(err).
			Str("appointment_id", appointment.ID.String()).
			Msg("failed to publish reminder event")
		return err
	}

	if s.metrics != nil {
		s.metrics.RemindersPublished.Inc()
	}
	return nil
}
