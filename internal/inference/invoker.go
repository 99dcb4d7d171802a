// Package inference runs feature rows through the loaded classifier and
// shapes the result returned to clients.
package inference

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/TimurManjosov/erpredict/internal/features"
	"github.com/TimurManjosov/erpredict/internal/model"
	"github.com/TimurManjosov/erpredict/internal/telemetry"
)

const tracerName = "github.com/TimurManjosov/erpredict/internal/inference"

// Classes.
const (
	NoVisit = 0
	Visit   = 1
)

// Probabilities holds class probabilities as percentages rounded to two
// decimal places.
type Probabilities struct {
	NoERVisit float64 `json:"No_ER_Visit"`
	ERVisit   float64 `json:"ER_Visit"`
}

// Result is the outcome of one prediction.
type Result struct {
	Prediction    int           `json:"prediction"`
	Probabilities Probabilities `json:"probabilities"`
}

// InferenceError wraps any failure raised while invoking the classifier.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return "inference failed: " + e.Err.Error() }

func (e *InferenceError) Unwrap() error { return e.Err }

// ErrProbabilityShape is returned when the classifier does not produce exactly
// two class probabilities.
var ErrProbabilityShape = errors.New("classifier must return two class probabilities")

// ErrRowShape is returned for a row that does not carry exactly one value
// per schema column.
var ErrRowShape = errors.New("malformed feature row")

// Invoker calls a classifier. It holds no per-request state and is safe for
// concurrent use.
type Invoker struct {
	clf    model.Classifier
	cache  *lru.Cache[[features.Width]float64, Result]
	logger zerolog.Logger
}

// Option configures an Invoker.
type Option func(*Invoker) error

// WithCache memoizes up to size results keyed by the feature row. A size of 0
// disables the cache.
func WithCache(size int) Option {
	return func(inv *Invoker) error {
		if size <= 0 {
			return nil
		}
		c, err := lru.New[[features.Width]float64, Result](size)
		if err != nil {
			return fmt.Errorf("prediction cache: %w", err)
		}
		inv.cache = c
		return nil
	}
}

// WithLogger sets the logger used for consistency warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(inv *Invoker) error {
		inv.logger = logger
		return nil
	}
}

// NewInvoker creates an Invoker for clf.
func NewInvoker(clf model.Classifier, opts ...Option) (*Invoker, error) {
	if clf == nil {
		return nil, errors.New("inference: nil classifier")
	}
	inv := &Invoker{clf: clf, logger: zerolog.Nop()}
	for _, opt := range opts {
		if err := opt(inv); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

// Predict scores one row. Any classifier failure is returned as
// *InferenceError; there are no retries. A done ctx returns ctx.Err()
// without calling the classifier.
func (inv *Invoker) Predict(ctx context.Context, row features.Row) (Result, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "inference.Predict",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int("features", len(row.Values))),
	)
	defer span.End()

	// shape is checked before the cache: Key only sees the first Width values
	if err := checkShape(row); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed row")
		return Result{}, &InferenceError{Err: err}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if inv.cache != nil {
		if res, ok := inv.cache.Get(row.Key()); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true), attribute.Int("prediction", res.Prediction))
			telemetry.PredictionCacheHits.Inc()
			telemetry.Predictions.WithLabelValues(classLabel(res.Prediction)).Inc()
			return res, nil
		}
	}

	start := time.Now()
	res, err := inv.invoke(row)
	telemetry.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference failed")
		return Result{}, &InferenceError{Err: err}
	}

	if inv.cache != nil {
		inv.cache.Add(row.Key(), res)
	}
	span.SetAttributes(attribute.Bool("cache.hit", false), attribute.Int("prediction", res.Prediction))
	telemetry.Predictions.WithLabelValues(classLabel(res.Prediction)).Inc()
	return res, nil
}

func checkShape(row features.Row) error {
	if len(row.Values) != features.Width || len(row.Columns) != features.Width {
		return fmt.Errorf("%w: row has %d values for %d columns, want %d",
			ErrRowShape, len(row.Values), len(row.Columns), features.Width)
	}
	return nil
}

func (inv *Invoker) invoke(row features.Row) (Result, error) {
	probs, err := inv.clf.PredictProba(row.Values)
	if err != nil {
		return Result{}, fmt.Errorf("predict_proba: %w", err)
	}
	if len(probs) != 2 {
		return Result{}, fmt.Errorf("%w, got %d", ErrProbabilityShape, len(probs))
	}

	label, err := inv.clf.Predict(row.Values)
	if err != nil {
		return Result{}, fmt.Errorf("predict: %w", err)
	}

	if argmax(probs) != label {
		inv.logger.Warn().
			Int("prediction", label).
			Floats64("probabilities", probs).
			Msg("class label disagrees with probability argmax")
	}

	return Result{
		Prediction: label,
		Probabilities: Probabilities{
			NoERVisit: Percent(probs[0]),
			ERVisit:   Percent(probs[1]),
		},
	}, nil
}

// Percent converts a probability to a percentage rounded to two decimal
// places.
func Percent(p float64) float64 {
	return math.Round(p*100*100) / 100
}

func argmax(probs []float64) int {
	if probs[1] > probs[0] {
		return Visit
	}
	return NoVisit
}

func classLabel(class int) string {
	switch class {
	case NoVisit:
		return "no_er_visit"
	case Visit:
		return "er_visit"
	default:
		return "unknown"
	}
}
