package evaluate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"newsquant/src/model"
)

func dailyCloses(start time.Time, closes ...float64) model.OHLCVSeries {
	series := make(model.OHLCVSeries, len(closes))
	for i, c := range closes {
		series[i] = model.OHLCVBar{
			Symbol:   "TEST",
			Datetime: start.AddDate(0, 0, i),
			Open:     decimal.NewFromFloat(c),
			High:     decimal.NewFromFloat(c),
			Low:      decimal.NewFromFloat(c),
			Close:    decimal.NewFromFloat(c),
			Volume:   decimal.NewFromInt(1000),
		}
	}
	return series
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestReturnsFullWindow(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	series := dailyCloses(start, 100, 103, 101, 104, 102, 105)

	ret1d, ret3d, ret5d, partial, ok := Returns(series, start)
	if !ok {
		t.Fatal("expected series to be evaluable")
	}
	if partial {
		t.Fatal("expected full window, got partial")
	}
	if !almostEqual(ret1d, 3) || !almostEqual(ret3d, 4) || !almostEqual(ret5d, 5) {
		t.Fatalf("unexpected returns: 1d=%.4f 3d=%.4f 5d=%.4f", ret1d, ret3d, ret5d)
	}
}

func TestReturnsBaselineSkipsToNextBar(t *testing.T) {
	// Event lands on a weekend; the baseline must be the next available bar.
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	series := dailyCloses(start, 100, 102, 104, 106, 108)

	eventAt := start.Add(-48 * time.Hour)
	ret1d, _, _, _, ok := Returns(series, eventAt)
	if !ok {
		t.Fatal("expected series to be evaluable")
	}
	if !almostEqual(ret1d, 2) {
		t.Fatalf("expected baseline at first bar, got ret1d=%.4f", ret1d)
	}
}

func TestReturnsMissingHorizonsAreZeroAndPartial(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	series := dailyCloses(start, 100, 102, 103)

	ret1d, ret3d, ret5d, partial, ok := Returns(series, start)
	if !ok {
		t.Fatal("expected series to be evaluable with one horizon")
	}
	if !partial {
		t.Fatal("expected partial flag when later horizons are missing")
	}
	if !almostEqual(ret1d, 2) || ret3d != 0 || ret5d != 0 {
		t.Fatalf("unexpected returns: 1d=%.4f 3d=%.4f 5d=%.4f", ret1d, ret3d, ret5d)
	}
}

func TestReturnsNotEvaluable(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		series  model.OHLCVSeries
		eventAt time.Time
	}{
		{"empty series", nil, start},
		{"event after last bar", dailyCloses(start, 100, 101), start.AddDate(0, 0, 5)},
		{"baseline only", dailyCloses(start, 100), start},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, _, ok := Returns(tc.series, tc.eventAt)
			if ok {
				t.Fatal("expected series to be rejected")
			}
		})
	}
}

type fakeBars struct {
	series map[string]model.OHLCVSeries
}

func (f *fakeBars) SeriesBetween(_ context.Context, symbol string, _, _ time.Time) (model.OHLCVSeries, error) {
	return f.series[symbol], nil
}

type fakePredictions struct {
	active    []model.Prediction
	evaluated []uint
}

func (f *fakePredictions) GetActive(context.Context) ([]model.Prediction, error) {
	return f.active, nil
}

func (f *fakePredictions) GetByID(_ context.Context, id uint) (*model.Prediction, error) {
	for i := range f.active {
		if f.active[i].ID == id {
			return &f.active[i], nil
		}
	}
	return nil, nil
}

func (f *fakePredictions) MarkEvaluated(_ context.Context, id uint) error {
	f.evaluated = append(f.evaluated, id)
	return nil
}

type fakeRecords struct {
	records  []model.PerformanceRecord
	failures int
}

func (f *fakeRecords) Append(_ context.Context, record *model.PerformanceRecord) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("insert failed")
	}
	f.records = append(f.records, *record)
	return nil
}

type fakeStats struct {
	byTicker map[string]*model.TickerStats
}

func (f *fakeStats) Get(_ context.Context, ticker string) (*model.TickerStats, error) {
	return f.byTicker[ticker], nil
}

func (f *fakeStats) ApplyOutcome(_ context.Context, ticker string, consistent, fake bool) (*model.TickerStats, error) {
	stats, ok := f.byTicker[ticker]
	if !ok {
		stats = &model.TickerStats{Ticker: ticker}
		if f.byTicker == nil {
			f.byTicker = map[string]*model.TickerStats{}
		}
		f.byTicker[ticker] = stats
	}
	stats.Apply(consistent, fake)
	return stats, nil
}

func TestEvaluatorRun(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	bars := &fakeBars{series: map[string]model.OHLCVSeries{
		// Consistent: up and holding through day 5.
		"GOODCO": dailyCloses(start, 100, 103, 104, 105, 104, 106),
		// Fake rally: +3% day one, flat by day five.
		"POPCO": dailyCloses(start, 100, 103, 102, 101, 100.4, 100.2),
		// No bars at all: stays active.
		"NODATA": nil,
	}}

	predictions := &fakePredictions{active: []model.Prediction{
		{ID: 1, Ticker: "GOODCO", EventAt: start, Catalyst: model.NewsTypeEarnings},
		{ID: 2, Ticker: "POPCO", EventAt: start, Catalyst: model.NewsTypeGeneral},
		{ID: 3, Ticker: "NODATA", EventAt: start},
	}}

	records := &fakeRecords{}
	stats := &fakeStats{}

	evaluator := &Evaluator{
		Bars:        bars,
		Predictions: predictions,
		Records:     records,
		Stats:       stats,
	}

	result, err := evaluator.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error running evaluator: %v", err)
	}

	if result.Evaluated != 2 || result.Skipped != 1 || result.Failed != 0 {
		t.Fatalf("unexpected run result: %+v", result)
	}
	if result.RunID == "" {
		t.Fatal("expected a run id")
	}

	if len(records.records) != 2 {
		t.Fatalf("expected 2 performance records, got %d", len(records.records))
	}

	good := records.records[0]
	if good.Ticker != "GOODCO" || !good.Consistent || good.Fake {
		t.Fatalf("expected consistent outcome for GOODCO: %+v", good)
	}
	if good.RunID != result.RunID {
		t.Fatalf("record run id %q does not match run %q", good.RunID, result.RunID)
	}
	if !almostEqual(good.ReliabilityD, 1) {
		t.Fatalf("expected reliability delta 1.0 on first success, got %.4f", good.ReliabilityD)
	}

	pop := records.records[1]
	if pop.Ticker != "POPCO" || pop.Consistent || !pop.Fake {
		t.Fatalf("expected fake rally outcome for POPCO: %+v", pop)
	}
	if !almostEqual(pop.ReliabilityD, -1.25) {
		t.Fatalf("expected reliability delta -1.25 on first fake rally, got %.4f", pop.ReliabilityD)
	}

	if len(predictions.evaluated) != 2 {
		t.Fatalf("expected 2 predictions marked evaluated, got %v", predictions.evaluated)
	}

	if stats.byTicker["NODATA"] != nil {
		t.Fatal("skipped prediction must not touch ticker stats")
	}
}

func TestRunRetryAfterAppendFailureCountsOutcomeOnce(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	bars := &fakeBars{series: map[string]model.OHLCVSeries{
		"GOODCO": dailyCloses(start, 100, 103, 104, 105, 104, 106),
	}}
	predictions := &fakePredictions{active: []model.Prediction{
		{ID: 1, Ticker: "GOODCO", EventAt: start, Catalyst: model.NewsTypeEarnings},
	}}
	records := &fakeRecords{failures: 1}
	stats := &fakeStats{}

	evaluator := &Evaluator{
		Bars:        bars,
		Predictions: predictions,
		Records:     records,
		Stats:       stats,
	}

	// First pass: the record insert fails, so nothing may be committed.
	result, err := evaluator.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on first pass: %v", err)
	}
	if result.Failed != 1 || result.Evaluated != 0 {
		t.Fatalf("unexpected first-pass result: %+v", result)
	}
	if stats.byTicker["GOODCO"] != nil {
		t.Fatal("a failed evaluation must not touch ticker stats")
	}
	if len(predictions.evaluated) != 0 {
		t.Fatal("a failed evaluation must leave the prediction active")
	}

	// Second pass retries the still-active prediction and succeeds.
	result, err = evaluator.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on second pass: %v", err)
	}
	if result.Evaluated != 1 {
		t.Fatalf("unexpected second-pass result: %+v", result)
	}

	if len(records.records) != 1 {
		t.Fatalf("expected exactly one performance record, got %d", len(records.records))
	}
	got := stats.byTicker["GOODCO"]
	if got == nil || got.Appearances != 1 || got.Successes != 1 {
		t.Fatalf("outcome must be counted exactly once, got %+v", got)
	}
	if !almostEqual(records.records[0].ReliabilityD, 1) {
		t.Fatalf("expected reliability delta 1.0, got %.4f", records.records[0].ReliabilityD)
	}
}

func TestRecordOutcomeSinglePrediction(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	bars := &fakeBars{series: map[string]model.OHLCVSeries{
		"GOODCO": dailyCloses(start, 100, 103, 104, 105, 104, 106),
		"FRESH":  dailyCloses(start, 100),
	}}
	predictions := &fakePredictions{active: []model.Prediction{
		{ID: 7, Ticker: "GOODCO", EventAt: start, Status: model.PredictionStatusActive},
		{ID: 8, Ticker: "FRESH", EventAt: start, Status: model.PredictionStatusActive},
	}}
	records := &fakeRecords{}

	evaluator := &Evaluator{
		Bars:        bars,
		Predictions: predictions,
		Records:     records,
		Stats:       &fakeStats{},
	}

	record, err := evaluator.RecordOutcome(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error recording outcome: %v", err)
	}
	if record.PredictionID != 7 || !record.Consistent {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(predictions.evaluated) != 1 || predictions.evaluated[0] != 7 {
		t.Fatalf("expected prediction 7 marked evaluated, got %v", predictions.evaluated)
	}

	if _, err := evaluator.RecordOutcome(context.Background(), 8); err != ErrNotEvaluable {
		t.Fatalf("expected ErrNotEvaluable for a too-recent prediction, got %v", err)
	}
	if _, err := evaluator.RecordOutcome(context.Background(), 99); err != ErrPredictionNotFound {
		t.Fatalf("expected ErrPredictionNotFound for an unknown id, got %v", err)
	}
}
