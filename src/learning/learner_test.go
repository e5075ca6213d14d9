package learning

import (
	"context"
	"strings"
	"testing"
	"time"

	"newsquant/src/model"
)

func recordsWithRate(catalyst model.NewsType, consistent, total int) []model.PerformanceRecord {
	records := make([]model.PerformanceRecord, total)
	for i := range records {
		records[i] = model.PerformanceRecord{
			Ticker:     "T1",
			Catalyst:   catalyst,
			Consistent: i < consistent,
		}
	}
	return records
}

func TestLearnRaisesWeightOnHighSuccessRate(t *testing.T) {
	records := recordsWithRate(model.NewsTypeEarnings, 8, 12) // 67%

	next, insights := Learn(records, nil, model.DefaultScoringConfig())

	if got := next.CatalystWeights[model.NewsTypeEarnings]; got != 1.1 {
		t.Fatalf("expected earnings weight 1.1, got %.2f", got)
	}
	if len(insights) != 1 {
		t.Fatalf("expected one insight, got %v", insights)
	}
	if !strings.Contains(insights[0], "Increased earnings catalyst weight") ||
		!strings.Contains(insights[0], "67% over 12 observations") {
		t.Fatalf("unexpected insight text: %q", insights[0])
	}
}

func TestLearnLowersWeightOnLowSuccessRate(t *testing.T) {
	records := recordsWithRate(model.NewsTypeDividend, 2, 10) // 20%

	next, insights := Learn(records, nil, model.DefaultScoringConfig())

	if got := next.CatalystWeights[model.NewsTypeDividend]; got != 0.9 {
		t.Fatalf("expected dividend weight 0.9, got %.2f", got)
	}
	if len(insights) != 1 || !strings.Contains(insights[0], "Decreased dividend catalyst weight") {
		t.Fatalf("unexpected insights: %v", insights)
	}
}

func TestLearnIgnoresThinAndNeutralEvidence(t *testing.T) {
	records := recordsWithRate(model.NewsTypeMA, 4, 4) // 100% but only 4 observations
	records = append(records, recordsWithRate(model.NewsTypeSector, 5, 10)...)

	next, insights := Learn(records, nil, model.DefaultScoringConfig())

	if got := next.CatalystWeights[model.NewsTypeMA]; got != 1.0 {
		t.Fatalf("thin evidence must not move weights, got %.2f", got)
	}
	if got := next.CatalystWeights[model.NewsTypeSector]; got != 1.0 {
		t.Fatalf("neutral-band rate must not move weights, got %.2f", got)
	}
	if len(insights) != 0 {
		t.Fatalf("expected no insights, got %v", insights)
	}
}

func TestLearnConvergesOnReplay(t *testing.T) {
	records := recordsWithRate(model.NewsTypeEarnings, 8, 12)
	stats := []model.TickerStats{
		{Ticker: "POPCO", Successes: 1, FakeRiseCount: 3, Appearances: 8},
	}

	first, firstInsights := Learn(records, stats, model.DefaultScoringConfig())
	if len(firstInsights) == 0 {
		t.Fatal("expected adjustments on first cycle")
	}

	// Replaying the same evidence against the adjusted config must be a no-op.
	second, secondInsights := Learn(records, stats, first)
	if len(secondInsights) != 0 {
		t.Fatalf("expected no further adjustments on replay, got %v", secondInsights)
	}
	if second.CatalystWeights[model.NewsTypeEarnings] != first.CatalystWeights[model.NewsTypeEarnings] {
		t.Fatal("catalyst weight drifted on replay")
	}
	if second.TickerPenalty["POPCO"] != first.TickerPenalty["POPCO"] {
		t.Fatal("ticker penalty drifted on replay")
	}
}

func TestLearnTickerPenalty(t *testing.T) {
	stats := []model.TickerStats{
		{Ticker: "POPCO", Successes: 1, FakeRiseCount: 3, Appearances: 8},
		{Ticker: "ONEOFF", Successes: 0, FakeRiseCount: 1, Appearances: 2},
		{Ticker: "SOLID", Successes: 5, FakeRiseCount: 2, Appearances: 9},
	}

	next, insights := Learn(nil, stats, model.DefaultScoringConfig())

	if got := next.TickerPenalty["POPCO"]; got != -10 {
		t.Fatalf("expected penalty -10 for POPCO, got %.1f", got)
	}
	if _, ok := next.TickerPenalty["ONEOFF"]; ok {
		t.Fatal("a single fake rally must not trigger a penalty")
	}
	if _, ok := next.TickerPenalty["SOLID"]; ok {
		t.Fatal("fakes below successes must not trigger a penalty")
	}
	if len(insights) != 1 || !strings.Contains(insights[0], "Applied penalty -10.0 to POPCO") {
		t.Fatalf("unexpected insights: %v", insights)
	}
}

func TestLearnClearsStalePenalty(t *testing.T) {
	current := model.DefaultScoringConfig()
	current.TickerPenalty["RECOVERED"] = -10
	stats := []model.TickerStats{
		{Ticker: "RECOVERED", Successes: 4, FakeRiseCount: 2, Appearances: 10},
	}

	next, insights := Learn(nil, stats, current)

	if _, ok := next.TickerPenalty["RECOVERED"]; ok {
		t.Fatal("expected stale penalty to be cleared")
	}
	if len(insights) != 1 || !strings.Contains(insights[0], "Cleared penalty for RECOVERED") {
		t.Fatalf("unexpected insights: %v", insights)
	}
}

func TestLearnPenaltyFloor(t *testing.T) {
	stats := []model.TickerStats{
		{Ticker: "SERIAL", Successes: 0, FakeRiseCount: 9, Appearances: 12},
	}

	next, _ := Learn(nil, stats, model.DefaultScoringConfig())

	if got := next.TickerPenalty["SERIAL"]; got != -25 {
		t.Fatalf("expected penalty floored at -25, got %.1f", got)
	}
}

func TestLearnDoesNotMutateCurrentConfig(t *testing.T) {
	current := model.DefaultScoringConfig()
	records := recordsWithRate(model.NewsTypeEarnings, 8, 12)

	Learn(records, nil, current)

	if current.CatalystWeights[model.NewsTypeEarnings] != 1.0 {
		t.Fatal("learn must not mutate the input config")
	}
}

type fakeRecordSource struct {
	records []model.PerformanceRecord
}

func (f *fakeRecordSource) ListSince(context.Context, time.Time) ([]model.PerformanceRecord, error) {
	return f.records, nil
}

type fakeStatsSource struct {
	stats []model.TickerStats
}

func (f *fakeStatsSource) List(context.Context) ([]model.TickerStats, error) {
	return f.stats, nil
}

type fakeConfigStore struct {
	active   *model.ConfigSnapshot
	drafts   []*model.ConfigSnapshot
	promoted []int
}

func (f *fakeConfigStore) GetActive(context.Context) (*model.ConfigSnapshot, error) {
	return f.active, nil
}

func (f *fakeConfigStore) SaveDraft(_ context.Context, snapshot *model.ConfigSnapshot) error {
	snapshot.Version = len(f.drafts) + 1
	snapshot.Status = model.ConfigStatusDraft
	f.drafts = append(f.drafts, snapshot)
	return nil
}

func (f *fakeConfigStore) Promote(_ context.Context, version int) error {
	f.promoted = append(f.promoted, version)
	return nil
}

func TestLearnerRunAutoApply(t *testing.T) {
	configs := &fakeConfigStore{}
	learner := &Learner{
		Records:   &fakeRecordSource{records: recordsWithRate(model.NewsTypeEarnings, 8, 12)},
		Stats:     &fakeStatsSource{},
		Configs:   configs,
		Window:    30 * 24 * time.Hour,
		AutoApply: true,
	}

	result, err := learner.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error running learner: %v", err)
	}

	if result.Discarded {
		t.Fatal("in-bounds draft must not be discarded")
	}
	if !result.Promoted || result.Version != 1 {
		t.Fatalf("expected auto-promoted version 1, got %+v", result)
	}
	if len(configs.promoted) != 1 || configs.promoted[0] != 1 {
		t.Fatalf("expected promotion of version 1, got %v", configs.promoted)
	}

	cfg, err := configs.drafts[0].Config()
	if err != nil {
		t.Fatalf("failed to decode draft: %v", err)
	}
	if cfg.CatalystWeights[model.NewsTypeEarnings] != 1.1 {
		t.Fatalf("unexpected draft weight: %.2f", cfg.CatalystWeights[model.NewsTypeEarnings])
	}
}

func TestLearnerRunNoEvidenceWritesNothing(t *testing.T) {
	configs := &fakeConfigStore{}
	learner := &Learner{
		Records: &fakeRecordSource{},
		Stats:   &fakeStatsSource{},
		Configs: configs,
		Window:  30 * 24 * time.Hour,
	}

	result, err := learner.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error running learner: %v", err)
	}

	if len(result.Insights) != 0 || result.Version != 0 {
		t.Fatalf("expected an empty cycle, got %+v", result)
	}
	if len(configs.drafts) != 0 {
		t.Fatal("empty cycle must not write a draft")
	}
}

func TestLearnerRunDiscardsOutOfBoundsDraft(t *testing.T) {
	// An active config already carrying an out-of-band penalty makes any
	// derived draft fail validation.
	bad := model.DefaultScoringConfig()
	bad.TickerPenalty["LEGACY"] = -40
	snapshot, err := model.NewConfigSnapshot(1, "run-0", bad, nil)
	if err != nil {
		t.Fatalf("failed to build snapshot: %v", err)
	}
	snapshot.Status = model.ConfigStatusActive

	configs := &fakeConfigStore{active: snapshot}
	learner := &Learner{
		Records:   &fakeRecordSource{records: recordsWithRate(model.NewsTypeEarnings, 8, 12)},
		Stats:     &fakeStatsSource{},
		Configs:   configs,
		Window:    30 * 24 * time.Hour,
		AutoApply: true,
	}

	result, err := learner.Run(context.Background())
	if err != nil {
		t.Fatalf("a discarded draft is not an error: %v", err)
	}

	if !result.Discarded {
		t.Fatal("expected draft to be discarded")
	}
	if len(configs.drafts) != 0 || len(configs.promoted) != 0 {
		t.Fatal("discarded draft must not be persisted or promoted")
	}
}
