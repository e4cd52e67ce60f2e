package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/oshokin/radio-alternator/internal/domain/alternator"
)

// Recorder observes the alternator worker and updates Prometheus collectors.
type Recorder struct {
	// runsStarted counts worker starts.
	runsStarted prometheus.Counter
	// running is 1 while a worker is alive.
	running prometheus.Gauge
	// transitions counts phase changes by from and to phase.
	transitions *prometheus.CounterVec
	// phaseDuration observes the wall time of each completed timed phase.
	phaseDuration *prometheus.HistogramVec
	// subsystemErrors counts failed subsystem calls by phase and operation.
	subsystemErrors *prometheus.CounterVec
}

// NewRecorder registers the alternator collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		runsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "alternator_runs_started_total",
				Help: "Total number of worker runs started",
			},
		),
		running: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "alternator_running",
				Help: "Whether a worker is alive (1) or not (0)",
			},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alternator_phase_transitions_total",
				Help: "Total number of worker state transitions",
			},
			[]string{"from", "to"},
		),
		phaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alternator_phase_duration_seconds",
				Help:    "Wall time of a begin, wait, end phase triple",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5},
			},
			[]string{"phase"},
		),
		subsystemErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alternator_subsystem_failures_total",
				Help: "Total number of failed or panicking subsystem calls",
			},
			[]string{"phase", "operation"},
		),
	}
}

// RunStarted counts a new run and marks the worker alive.
func (r *Recorder) RunStarted(string) {
	r.runsStarted.Inc()
	r.running.Set(1)
}

// RunFinished marks the worker gone.
func (r *Recorder) RunFinished(string) {
	r.running.Set(0)
}

// Transition counts a worker state change.
func (r *Recorder) Transition(from, to domain.Phase) {
	r.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// PhaseCompleted observes the duration of a finished phase.
func (r *Recorder) PhaseCompleted(phase domain.Phase, elapsed time.Duration) {
	r.phaseDuration.WithLabelValues(phase.String()).Observe(elapsed.Seconds())
}

// SubsystemFailed counts a failed subsystem call.
func (r *Recorder) SubsystemFailed(phase domain.Phase, operation string) {
	r.subsystemErrors.WithLabelValues(phase.String(), operation).Inc()
}

// Handler exposes the gathered metrics over HTTP.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
