package evaluate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"newsquant/src/model"
)

var (
	// ErrPredictionNotFound is returned when an outcome is requested for a
	// prediction that does not exist or is no longer active.
	ErrPredictionNotFound = errors.New("prediction not found or not active")

	// ErrNotEvaluable is returned when the baseline bar has not arrived yet;
	// the prediction stays active for a later pass.
	ErrNotEvaluable = errors.New("not enough price history to evaluate")
)

// Horizon offsets measured in trading bars after the baseline bar.
const (
	horizon1d = 1
	horizon3d = 3
	horizon5d = 5
)

// lookAheadDays bounds the price window fetched per prediction. Five trading
// bars never span more than ten calendar days.
const lookAheadDays = 10

// Returns measures the realized percentage returns of a prediction against a
// bar series. The baseline is the first bar at or after the event; horizons
// are counted in bars from there. A horizon with no bar yet contributes 0%
// and flips partial. ok is false when the series cannot be evaluated at all:
// no baseline bar, or no bar after the baseline.
func Returns(series model.OHLCVSeries, eventAt time.Time) (ret1d, ret3d, ret5d float64, partial, ok bool) {
	idx := series.FirstAtOrAfter(eventAt)
	if idx < 0 {
		return 0, 0, 0, false, false
	}

	baseline := series[idx].Close.InexactFloat64()
	if baseline <= 0 {
		return 0, 0, 0, false, false
	}
	if idx+horizon1d >= len(series) {
		return 0, 0, 0, false, false
	}

	at := func(offset int) (float64, bool) {
		if idx+offset >= len(series) {
			return 0, false
		}
		return (series[idx+offset].Close.InexactFloat64()/baseline - 1) * 100, true
	}

	ret1d, _ = at(horizon1d)
	var have3d, have5d bool
	ret3d, have3d = at(horizon3d)
	ret5d, have5d = at(horizon5d)
	partial = !have3d || !have5d

	return ret1d, ret3d, ret5d, partial, true
}

// BarProvider is the slice of the OHLCV repository the evaluator needs.
type BarProvider interface {
	SeriesBetween(ctx context.Context, symbol string, from, to time.Time) (model.OHLCVSeries, error)
}

// PredictionStore is the slice of the prediction repository the evaluator needs.
type PredictionStore interface {
	GetActive(ctx context.Context) ([]model.Prediction, error)
	GetByID(ctx context.Context, id uint) (*model.Prediction, error)
	MarkEvaluated(ctx context.Context, id uint) error
}

// RecordSink persists evaluation outcomes.
type RecordSink interface {
	Append(ctx context.Context, record *model.PerformanceRecord) error
}

// StatsStore maintains per-ticker aggregates.
type StatsStore interface {
	Get(ctx context.Context, ticker string) (*model.TickerStats, error)
	ApplyOutcome(ctx context.Context, ticker string, consistent, fake bool) (*model.TickerStats, error)
}

// Evaluator turns active predictions into performance records once realized
// prices are available.
type Evaluator struct {
	Bars        BarProvider
	Predictions PredictionStore
	Records     RecordSink
	Stats       StatsStore
}

// RunResult summarizes one evaluation pass.
type RunResult struct {
	RunID     string
	Evaluated int
	Skipped   int
	Failed    int
}

// Run evaluates every active prediction that has enough price history. A
// prediction whose baseline bar has not arrived yet stays active and is
// picked up by a later run. Errors on individual predictions are logged and
// counted; the pass continues.
func (e *Evaluator) Run(ctx context.Context) (*RunResult, error) {
	runID := uuid.NewString()

	predictions, err := e.Predictions.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &RunResult{RunID: runID}
	for i := range predictions {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		prediction := &predictions[i]
		record, err := e.evaluateOne(ctx, runID, prediction)
		if err != nil {
			result.Failed++
			logger.WithFields(map[string]interface{}{
				"op":     "Evaluate",
				"run_id": runID,
				"ticker": prediction.Ticker,
			}).WithError(err).Error("Failed to evaluate prediction")
			continue
		}
		if record == nil {
			result.Skipped++
			continue
		}
		result.Evaluated++
	}

	logger.WithFields(map[string]interface{}{
		"op":        "Evaluate",
		"run_id":    runID,
		"evaluated": result.Evaluated,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	}).Info("Evaluation run finished")

	return result, nil
}

// RecordOutcome evaluates a single prediction on demand. Unlike Run, a
// prediction whose baseline bar has not arrived yet is an error here, so the
// caller learns why nothing was written.
func (e *Evaluator) RecordOutcome(ctx context.Context, predictionID uint) (*model.PerformanceRecord, error) {
	prediction, err := e.Predictions.GetByID(ctx, predictionID)
	if err != nil {
		return nil, err
	}
	if prediction == nil || prediction.Status != model.PredictionStatusActive {
		return nil, ErrPredictionNotFound
	}

	record, err := e.evaluateOne(ctx, uuid.NewString(), prediction)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNotEvaluable
	}
	return record, nil
}

// evaluateOne writes a performance record for one prediction. A nil record
// with a nil error means the prediction is not evaluable yet and stays active.
func (e *Evaluator) evaluateOne(ctx context.Context, runID string, prediction *model.Prediction) (*model.PerformanceRecord, error) {
	from := prediction.EventAt.AddDate(0, 0, -1)
	to := prediction.EventAt.AddDate(0, 0, lookAheadDays)

	series, err := e.Bars.SeriesBetween(ctx, prediction.Ticker, from, to)
	if err != nil {
		return nil, err
	}

	ret1d, ret3d, ret5d, partial, ok := Returns(series, prediction.EventAt)
	if !ok {
		return nil, nil // too recent, or no price data yet
	}

	consistent, fake := model.ClassifyReturns(ret1d, ret3d, ret5d)

	// The reliability delta is projected from the closed form up front, so
	// the record does not depend on the aggregate write below.
	projected := model.TickerStats{Ticker: prediction.Ticker}
	if stats, err := e.Stats.Get(ctx, prediction.Ticker); err != nil {
		return nil, err
	} else if stats != nil {
		projected = *stats
	}
	before := projected.ReliabilityScore
	projected.Apply(consistent, fake)

	record := &model.PerformanceRecord{
		PredictionID: prediction.ID,
		Ticker:       prediction.Ticker,
		RunID:        runID,
		EventAt:      prediction.EventAt,
		Ret1d:        ret1d,
		Ret3d:        ret3d,
		Ret5d:        ret5d,
		Consistent:   consistent,
		Fake:         fake,
		Partial:      partial,
		Catalyst:     prediction.Catalyst,
		ReliabilityD: projected.ReliabilityScore - before,
	}

	// The record must be durable and the prediction retired before the
	// aggregate moves: a retry after a failure here must never fold the
	// same outcome into the stats twice.
	if err := e.Records.Append(ctx, record); err != nil {
		return nil, err
	}
	if err := e.Predictions.MarkEvaluated(ctx, prediction.ID); err != nil {
		return nil, err
	}
	if _, err := e.Stats.ApplyOutcome(ctx, prediction.Ticker, consistent, fake); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"op":         "Evaluate",
		"run_id":     runID,
		"ticker":     prediction.Ticker,
		"ret_1d":     ret1d,
		"ret_5d":     ret5d,
		"consistent": consistent,
		"fake":       fake,
		"partial":    partial,
	}).Debug("Prediction evaluated")

	return record, nil
}
