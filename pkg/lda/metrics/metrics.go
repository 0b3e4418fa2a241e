// Package metrics exposes Prometheus instrumentation for training, inference
// and model storage.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cognicore/lda/pkg/lda/model"
	"github.com/cognicore/lda/pkg/lda/store"
)

var (
	// TrainingPasses counts completed Gibbs passes across all runs.
	TrainingPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lda_training_passes_total",
			Help: "Total number of completed Gibbs sampling passes",
		},
	)

	// PassDuration measures the wall time of one pass over the corpus.
	PassDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lda_training_pass_duration_seconds",
			Help:    "Duration of one Gibbs sampling pass in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	// LogLikelihood is the corpus log-likelihood at the last evaluated pass.
	LogLikelihood = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lda_training_log_likelihood",
			Help: "Corpus log-likelihood at the last evaluated pass",
		},
	)

	// TrainingRuns counts training runs.
	// Labels:
	//   - outcome: "success", "cancelled", "error"
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lda_training_runs_total",
			Help: "Total number of training runs",
		},
		[]string{"outcome"},
	)

	// InferenceTotal counts inference calls.
	// Labels:
	//   - outcome: "success", "no_signal", "error"
	InferenceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lda_inference_total",
			Help: "Total number of document inferences",
		},
		[]string{"outcome"},
	)

	// InferenceDuration measures a single inference call.
	InferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lda_inference_duration_seconds",
			Help:    "Duration of a single document inference in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// StoreOperations counts model store calls.
	// Labels:
	//   - op: "save", "load", "delete", "list"
	//   - outcome: "success", "not_found", "error"
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lda_store_operations_total",
			Help: "Total number of model store operations",
		},
		[]string{"op", "outcome"},
	)

	// StoreDuration measures model store latency.
	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lda_store_operation_duration_seconds",
			Help:    "Duration of model store operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// TrainObserver feeds training progress into the package metrics.
type TrainObserver struct{}

var _ model.Observer = TrainObserver{}

// PassCompleted implements model.Observer.
func (TrainObserver) PassCompleted(_ int, elapsed time.Duration) {
	TrainingPasses.Inc()
	PassDuration.Observe(elapsed.Seconds())
}

// LogLikelihood implements model.Observer.
func (TrainObserver) LogLikelihood(_ int, value float64) {
	LogLikelihood.Set(value)
}

// RecordTraining counts a finished training run.
func RecordTraining(err error) {
	switch {
	case err == nil:
		TrainingRuns.WithLabelValues("success").Inc()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		TrainingRuns.WithLabelValues("cancelled").Inc()
	default:
		TrainingRuns.WithLabelValues("error").Inc()
	}
}

// RecordInference counts one inference call and its latency.
func RecordInference(err error, elapsed time.Duration) {
	InferenceDuration.Observe(elapsed.Seconds())
	switch {
	case err == nil:
		InferenceTotal.WithLabelValues("success").Inc()
	case errors.Is(err, model.ErrNoSignal):
		InferenceTotal.WithLabelValues("no_signal").Inc()
	default:
		InferenceTotal.WithLabelValues("error").Inc()
	}
}

// RecordStoreOp counts one store call and its latency.
func RecordStoreOp(op string, err error, elapsed time.Duration) {
	StoreDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	switch {
	case err == nil:
		StoreOperations.WithLabelValues(op, "success").Inc()
	case errors.Is(err, store.ErrNotFound):
		StoreOperations.WithLabelValues(op, "not_found").Inc()
	default:
		StoreOperations.WithLabelValues(op, "error").Inc()
	}
}

type instrumentedStore struct {
	next store.Store
}

// InstrumentStore wraps s so every call is recorded.
func InstrumentStore(s store.Store) store.Store {
	return &instrumentedStore{next: s}
}

func (s *instrumentedStore) Close() error { return s.next.Close() }

func (s *instrumentedStore) Save(ctx context.Context, id string, blob []byte) error {
	start := time.Now()
	err := s.next.Save(ctx, id, blob)
	RecordStoreOp("save", err, time.Since(start))
	return err
}

func (s *instrumentedStore) Load(ctx context.Context, id string) ([]byte, error) {
	start := time.Now()
	blob, err := s.next.Load(ctx, id)
	RecordStoreOp("load", err, time.Since(start))
	return blob, err
}

func (s *instrumentedStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	RecordStoreOp("delete", err, time.Since(start))
	return err
}

func (s *instrumentedStore) List(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	ids, err := s.next.List(ctx, prefix)
	RecordStoreOp("list", err, time.Since(start))
	return ids, err
}
