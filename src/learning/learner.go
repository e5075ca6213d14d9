package learning

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"newsquant/src/model"
)

// Learning thresholds. A catalyst needs a minimum number of observations
// before its success rate moves a weight; rates inside the neutral band leave
// the weight untouched.
const (
	MinObservations = 5
	RateRaise       = 0.55
	RateLower       = 0.45

	// PenaltyPerExcessFake is applied per fake rally beyond the success
	// count once a ticker has at least MinFakesForPenalty of them.
	PenaltyPerExcessFake = -5.0
	MinFakesForPenalty   = 2
	PenaltyFloor         = -25.0
)

// Learn derives a new scoring config from a window of performance records and
// the per-ticker aggregates. Adjusted weights are computed from the neutral
// baseline and the window's evidence, not by stepping the current weight, so
// replaying the same window converges instead of drifting. Weights for
// catalysts without enough evidence carry over unchanged.
func Learn(records []model.PerformanceRecord, stats []model.TickerStats, current model.ScoringConfig) (model.ScoringConfig, []string) {
	next := cloneConfig(current)
	var insights []string

	type tally struct {
		total      int
		consistent int
	}
	byCatalyst := map[model.NewsType]*tally{}
	for _, record := range records {
		t, ok := byCatalyst[record.Catalyst]
		if !ok {
			t = &tally{}
			byCatalyst[record.Catalyst] = t
		}
		t.total++
		if record.Consistent {
			t.consistent++
		}
	}

	catalysts := make([]model.NewsType, 0, len(byCatalyst))
	for catalyst := range byCatalyst {
		catalysts = append(catalysts, catalyst)
	}
	sort.Slice(catalysts, func(i, j int) bool { return catalysts[i] < catalysts[j] })

	for _, catalyst := range catalysts {
		t := byCatalyst[catalyst]
		if t.total < MinObservations {
			continue
		}

		rate := float64(t.consistent) / float64(t.total)
		previous := next.CatalystWeights[catalyst]
		if previous == 0 {
			previous = 1.0
		}

		var adjusted float64
		switch {
		case rate > RateRaise:
			adjusted = 1.0 + current.Bounds.MaxStep
		case rate < RateLower:
			adjusted = 1.0 - current.Bounds.MaxStep
		default:
			continue
		}
		adjusted = clamp(adjusted, current.Bounds.Min, current.Bounds.Max)
		if adjusted == previous {
			continue
		}

		next.CatalystWeights[catalyst] = adjusted
		direction := "Increased"
		if adjusted < previous {
			direction = "Decreased"
		}
		insights = append(insights, fmt.Sprintf(
			"%s %s catalyst weight to %.2f: success rate %.0f%% over %d observations",
			direction, catalyst, adjusted, rate*100, t.total))
	}

	for _, s := range stats {
		excess := s.FakeRiseCount - s.Successes
		if s.FakeRiseCount >= MinFakesForPenalty && excess > 0 {
			penalty := clamp(PenaltyPerExcessFake*float64(excess), PenaltyFloor, 0)
			if next.TickerPenalty[s.Ticker] == penalty {
				continue
			}
			next.TickerPenalty[s.Ticker] = penalty
			insights = append(insights, fmt.Sprintf(
				"Applied penalty %.1f to %s: %d fake rallies vs %d successes over %d appearances",
				penalty, s.Ticker, s.FakeRiseCount, s.Successes, s.Appearances))
		} else if _, had := next.TickerPenalty[s.Ticker]; had {
			delete(next.TickerPenalty, s.Ticker)
			insights = append(insights, fmt.Sprintf(
				"Cleared penalty for %s: fake rallies no longer dominate", s.Ticker))
		}
	}

	return next, insights
}

func cloneConfig(cfg model.ScoringConfig) model.ScoringConfig {
	out := cfg
	out.CatalystWeights = cloneMap(cfg.CatalystWeights)
	out.AlphaWeights = cloneMap(cfg.AlphaWeights)
	out.FeatureCaps = cloneMap(cfg.FeatureCaps)
	out.EventBonus = cloneMap(cfg.EventBonus)
	out.SourceBonus = cloneMap(cfg.SourceBonus)
	out.TickerPenalty = cloneMap(cfg.TickerPenalty)
	return out
}

func cloneMap[K comparable](m map[K]float64) map[K]float64 {
	out := make(map[K]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RecordSource is the slice of the performance repository the learner needs.
type RecordSource interface {
	ListSince(ctx context.Context, cutoff time.Time) ([]model.PerformanceRecord, error)
}

// StatsSource lists per-ticker aggregates.
type StatsSource interface {
	List(ctx context.Context) ([]model.TickerStats, error)
}

// ConfigStore is the slice of the config repository the learner needs.
type ConfigStore interface {
	GetActive(ctx context.Context) (*model.ConfigSnapshot, error)
	SaveDraft(ctx context.Context, snapshot *model.ConfigSnapshot) error
	Promote(ctx context.Context, version int) error
}

// Learner runs the full learning cycle: load evidence, derive a draft config,
// validate it, persist it, and optionally promote it.
type Learner struct {
	Records RecordSource
	Stats   StatsSource
	Configs ConfigStore

	Window    time.Duration
	AutoApply bool

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// CycleResult summarizes one learning cycle.
type CycleResult struct {
	RunID     string
	Version   int
	Promoted  bool
	Discarded bool
	Insights  []string
}

// Run executes one learning cycle. A draft whose adjustments violate the
// configured bounds is discarded and the active config stays in force; that
// outcome is a warning, not an error.
func (l *Learner) Run(ctx context.Context) (*CycleResult, error) {
	runID := uuid.NewString()
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	current := model.DefaultScoringConfig()
	active, err := l.Configs.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if active != nil {
		current, err = active.Config()
		if err != nil {
			return nil, err
		}
	}

	records, err := l.Records.ListSince(ctx, now().Add(-l.Window))
	if err != nil {
		return nil, err
	}
	stats, err := l.Stats.List(ctx)
	if err != nil {
		return nil, err
	}

	next, insights := Learn(records, stats, current)
	result := &CycleResult{RunID: runID, Insights: insights}

	if len(insights) == 0 {
		logger.WithFields(map[string]interface{}{
			"op":      "LearningCycle",
			"run_id":  runID,
			"records": len(records),
		}).Info("No adjustments this cycle")
		return result, nil
	}

	if err := next.Validate(); err != nil {
		result.Discarded = true
		logger.WithFields(map[string]interface{}{
			"op":     "LearningCycle",
			"run_id": runID,
		}).WithError(err).Warn("Draft config violates bounds, discarding")
		return result, nil
	}

	snapshot, err := model.NewConfigSnapshot(0, runID, next, insights)
	if err != nil {
		return nil, err
	}
	if err := l.Configs.SaveDraft(ctx, snapshot); err != nil {
		return nil, err
	}
	result.Version = snapshot.Version

	if l.AutoApply {
		if err := l.Configs.Promote(ctx, snapshot.Version); err != nil {
			return nil, err
		}
		result.Promoted = true
	}

	logger.WithFields(map[string]interface{}{
		"op":       "LearningCycle",
		"run_id":   runID,
		"version":  snapshot.Version,
		"promoted": result.Promoted,
		"insights": len(insights),
	}).Info("Learning cycle finished")

	return result, nil
}
