package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	AppointmentsTotal      *prometheus.CounterVec
	StatusTransitionsTotal *prometheus.CounterVec
	ConflictWarningsTotal  prometheus.Counter

	ConsultationsOpened     prometheus.Counter
	ConsultationsFinalized  prometheus.Counter
	ConsultationsRolledBack prometheus.Counter
	ConsultationsAborted    *prometheus.CounterVec
	GuardInterceptionsTotal *prometheus.CounterVec

	AppointmentsExpired prometheus.Counter

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		AppointmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "appointments_total",
			Help:      "Appointments created, by specialty.",
		}, []string{"specialty"}),

		StatusTransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "status_transitions_total",
			Help:      "Appointment status transitions by from/to label.",
		}, []string{"from", "to"}),

		ConflictWarningsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "conflict_warnings_total",
			Help:      "Bookings submitted despite an advisory slot conflict.",
		}),

		ConsultationsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "consultation",
			Name:      "sessions_opened_total",
			Help:      "Consultation sessions successfully opened.",
		}),

		ConsultationsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "consultation",
			Name:      "sessions_finalized_total",
			Help:      "Consultation sessions ended through finalize.",
		}),

		ConsultationsRolledBack: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "consultation",
			Name:      "sessions_rolled_back_total",
			Help:      "Consultation sessions rolled back to confirmed.",
		}),

		ConsultationsAborted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "consultation",
			Name:      "sessions_aborted_total",
			Help:      "Consultation opens aborted, by reason.",
		}, []string{"reason"}),

		GuardInterceptionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "consultation",
			Name:      "guard_interceptions_total",
			Help:      "Navigation attempts intercepted by the guard, by outcome.",
		}, []string{"outcome"}),

		AppointmentsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "appointments_expired_total",
			Help:      "Scheduled appointments swept into expired.",
		}),

		AuditEntriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
