// Package metrics exports scheduling events as Prometheus metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alnah/go-livepreview"
)

// Namespace prefixes every metric name.
const Namespace = "livepreview"

// Outcome label values of render_results_total.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

var _ livepreview.Observer = (*Recorder)(nil)

// Recorder implements livepreview.Observer on its own registry, so several
// recorders (one per test, or per session) never collide.
type Recorder struct {
	registry  *prometheus.Registry
	edits     *prometheus.CounterVec
	attempts  prometheus.Counter
	results   *prometheus.CounterVec
	durations *prometheus.HistogramVec
	stale     prometheus.Counter
	skipped   prometheus.Counter
	inflight  prometheus.Gauge
}

// NewRecorder creates a recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "edits_total",
			Help:      "Edits notified to the scheduler, by kind.",
		}, []string{"kind"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "render_attempts_total",
			Help:      "Render attempts started.",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "render_results_total",
			Help:      "Finished render attempts, by mode and outcome.",
		}, []string{"mode", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of render attempts.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "stale_results_total",
			Help:      "Results discarded because a newer edit arrived.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "skipped_images_total",
			Help:      "Images left out of a render because they did not decode.",
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "renders_in_flight",
			Help:      "Render attempts currently running.",
		}),
	}
	r.registry.MustRegister(r.edits, r.attempts, r.results, r.durations, r.stale, r.skipped, r.inflight)
	return r
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) EditNotified(kind livepreview.EditKind) {
	r.edits.WithLabelValues(kind.String()).Inc()
}

func (r *Recorder) AttemptStarted(livepreview.Token) {
	r.attempts.Inc()
	r.inflight.Inc()
}

func (r *Recorder) AttemptFinished(_ livepreview.Token, mode livepreview.Mode, elapsed time.Duration, err error) {
	r.inflight.Dec()
	r.results.WithLabelValues(mode.String(), outcomeOf(err)).Inc()
	r.durations.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
}

func (r *Recorder) StaleDiscarded(livepreview.Token) {
	r.stale.Inc()
}

func (r *Recorder) ImagesSkipped(n int) {
	r.skipped.Add(float64(n))
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	default:
		return OutcomeFailure
	}
}
