package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Scheduling metrics
	AppointmentsCreated   prometheus.Counter
	AppointmentsCompleted prometheus.Counter
	AppointmentsCancelled prometheus.Counter
	ConflictsDetected     prometheus.Counter
	SessionsGenerated     prometheus.Counter
	SlotsSkipped          prometheus.Counter
	PlansFinished         prometheus.Counter
	PlansDeleted          prometheus.Counter

	// Reminder side channel
	RemindersPublished    prometheus.Counter
	ReminderPublishFailed prometheus.Counter

	// Database metrics
	TransactionLatency *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		AppointmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_created_total",
			Help:      "Total number of appointments created",
		}),
		AppointmentsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_completed_total",
			Help:      "Total number of appointments completed",
		}),
		AppointmentsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_cancelled_total",
			Help:      "Total number of appointments cancelled",
		}),
		ConflictsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduling_conflicts_total",
			Help:      "Total number of scheduling conflicts detected",
		}),
		SessionsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_generated_total",
			Help:      "Total number of sessions created by the recurring generator",
		}),
		SlotsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generator_slots_skipped_total",
			Help:      "Total number of generated slots skipped due to conflicts",
		}),
		PlansFinished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_finished_total",
			Help:      "Total number of treatment plans that reached their target",
		}),
		PlansDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_deleted_total",
			Help:      "Total number of treatment plans deleted",
		}),
		RemindersPublished: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_published_total",
			Help:      "Total number of reminder events published",
		}),
		ReminderPublishFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_publish_failed_total",
			Help:      "Total number of reminder events that failed to publish",
		}),
		TransactionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transaction_duration_seconds",
			Help:      "Duration of multi-entity database transactions",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}
