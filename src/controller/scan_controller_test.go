package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"newsquant/src/connectors"
	"newsquant/src/model"
)

func TestNormalizeSymbol(t *testing.T) {
	cases := []struct {
		ticker string
		suffix string
		want   string
	}{
		{"TATASTEEL", ".NS", "TATASTEEL.NS"},
		{"tatasteel.ns", ".NS", "TATASTEEL.NS"},
		{" INFY ", ".NS", "INFY.NS"},
		{"RELIANCE", "", "RELIANCE"},
		{"", ".NS", ""},
	}

	for _, tc := range cases {
		if got := NormalizeSymbol(tc.ticker, tc.suffix); got != tc.want {
			t.Fatalf("NormalizeSymbol(%q, %q) = %q, want %q", tc.ticker, tc.suffix, got, tc.want)
		}
	}
}

func TestMultiplicityBonus(t *testing.T) {
	if got := MultiplicityBonus(1, 0.7); got != 0 {
		t.Fatalf("single article must add no bonus, got %.2f", got)
	}
	two := MultiplicityBonus(2, 0.7)
	five := MultiplicityBonus(5, 0.7)
	if two <= 0 || five <= two {
		t.Fatalf("bonus must grow with coverage: 2 -> %.2f, 5 -> %.2f", two, five)
	}
	if got := MultiplicityBonus(1000, 0.7); got != 10 {
		t.Fatalf("bonus must cap at 10, got %.2f", got)
	}
}

// risingSeries builds a long uptrend with a volume surge at the end, enough
// history for every indicator.
func risingSeries(symbol string, n int) model.OHLCVSeries {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	series := make(model.OHLCVSeries, n)
	price := 100.0
	for i := 0; i < n; i++ {
		if i%5 == 4 {
			price -= 0.4
		} else {
			price += 1.1
		}
		volume := 100000.0
		if i >= n-3 {
			volume = 260000 // breakout volume
		}
		series[i] = model.OHLCVBar{
			Symbol:   symbol,
			Datetime: start.AddDate(0, 0, i),
			Open:     decimal.NewFromFloat(price - 0.5),
			High:     decimal.NewFromFloat(price + 1),
			Low:      decimal.NewFromFloat(price - 1),
			Close:    decimal.NewFromFloat(price),
			Volume:   decimal.NewFromFloat(volume),
		}
	}
	return series
}

type fakeMarketData struct {
	series       map[string]model.OHLCVSeries
	fundamentals map[string]*model.Fundamentals
	err          map[string]error
}

func (f *fakeMarketData) GetOHLCV(_ context.Context, symbol string, _ int) (model.OHLCVSeries, error) {
	if err, ok := f.err[symbol]; ok {
		return nil, err
	}
	if s, ok := f.series[symbol]; ok {
		return s, nil
	}
	return nil, connectors.ErrNoData
}

func (f *fakeMarketData) GetFundamentals(_ context.Context, symbol string) (*model.Fundamentals, error) {
	if fd, ok := f.fundamentals[symbol]; ok {
		return fd, nil
	}
	return nil, connectors.ErrNoData
}

type fakeNewsStore struct {
	byTicker map[string][]model.NewsItem
	upserted int
}

func (f *fakeNewsStore) UpsertArticles(_ context.Context, articles []model.NewsItem) (int64, error) {
	f.upserted += len(articles)
	return int64(len(articles)), nil
}

func (f *fakeNewsStore) ListRecentByTicker(_ context.Context, ticker string, _ int) ([]model.NewsItem, error) {
	return f.byTicker[ticker], nil
}

type fakeRecorder struct {
	recorded []model.Prediction
}

func (f *fakeRecorder) Record(_ context.Context, prediction *model.Prediction) error {
	f.recorded = append(f.recorded, *prediction)
	return nil
}

type fakeBarStore struct {
	bars int
}

func (f *fakeBarStore) UpsertBars(_ context.Context, bars []model.OHLCVBar) error {
	f.bars += len(bars)
	return nil
}

type fakeConfigSource struct {
	snapshot *model.ConfigSnapshot
}

func (f *fakeConfigSource) GetActive(context.Context) (*model.ConfigSnapshot, error) {
	return f.snapshot, nil
}

func newTestController(md *fakeMarketData, news *fakeNewsStore, recorder *fakeRecorder) *ScanController {
	return &ScanController{
		MarketData:  md,
		NewsStore:   news,
		Predictions: recorder,
		Bars:        &fakeBarStore{},
		Configs:     &fakeConfigSource{},
		Config: Config{
			SymbolSuffix: ".NS",
			Workers:      2,
			HistoryDays:  365,
			NewsLookback: 48,
		},
	}
}

func TestScoreTickerRecordsPrediction(t *testing.T) {
	md := &fakeMarketData{
		series: map[string]model.OHLCVSeries{
			"GOODCO.NS": risingSeries("GOODCO.NS", 250),
		},
	}
	news := &fakeNewsStore{byTicker: map[string][]model.NewsItem{
		"GOODCO": {{
			Ticker:      "GOODCO",
			Headline:    "GOODCO Q4 net profit rises 28% on strong volumes",
			NewsType:    model.NewsTypeEarnings,
			PublishedAt: time.Now().Add(-2 * time.Hour),
		}},
	}}
	recorder := &fakeRecorder{}
	c := newTestController(md, news, recorder)

	report, err := c.ScoreTicker(context.Background(), "GOODCO", model.DefaultScoringConfig())
	if err != nil {
		t.Fatalf("unexpected error scoring ticker: %v", err)
	}
	if report == nil {
		t.Fatal("expected a report, got skip")
	}

	if report.Score == nil || report.Alpha == nil {
		t.Fatalf("incomplete report: %+v", report)
	}
	if report.Catalyst != model.NewsTypeEarnings {
		t.Fatalf("expected earnings catalyst, got %q", report.Catalyst)
	}
	if report.Articles != 1 {
		t.Fatalf("expected 1 article, got %d", report.Articles)
	}

	if len(recorder.recorded) != 1 {
		t.Fatalf("expected 1 recorded prediction, got %d", len(recorder.recorded))
	}
	prediction := recorder.recorded[0]
	if prediction.Ticker != "GOODCO" || prediction.Catalyst != model.NewsTypeEarnings {
		t.Fatalf("unexpected prediction: %+v", prediction)
	}
	if prediction.InitialPrice <= 0 {
		t.Fatalf("prediction must carry the close price, got %.2f", prediction.InitialPrice)
	}
}

func TestScoreTickerSkipsOnNoData(t *testing.T) {
	c := newTestController(&fakeMarketData{}, &fakeNewsStore{}, &fakeRecorder{})

	report, err := c.ScoreTicker(context.Background(), "NODATA", model.DefaultScoringConfig())
	if err != nil {
		t.Fatalf("missing data must skip, not fail: %v", err)
	}
	if report != nil {
		t.Fatalf("expected nil report for missing data, got %+v", report)
	}
}

func TestScoreTickerScoresWithoutNews(t *testing.T) {
	md := &fakeMarketData{
		series: map[string]model.OHLCVSeries{
			"QUIET.NS": risingSeries("QUIET.NS", 250),
		},
	}
	c := newTestController(md, &fakeNewsStore{}, &fakeRecorder{})

	report, err := c.ScoreTicker(context.Background(), "QUIET", model.DefaultScoringConfig())
	if err != nil {
		t.Fatalf("unexpected error scoring newsless ticker: %v", err)
	}
	if report == nil || report.Score == nil {
		t.Fatal("expected a technical-only score")
	}
	if report.Articles != 0 || report.Catalyst != model.NewsTypeGeneral {
		t.Fatalf("unexpected newsless report: %+v", report)
	}
}

func TestRankUniversePartitionsAndSorts(t *testing.T) {
	md := &fakeMarketData{
		series: map[string]model.OHLCVSeries{
			"AAA.NS": risingSeries("AAA.NS", 250),
			"BBB.NS": risingSeries("BBB.NS", 250),
		},
		err: map[string]error{
			"BOOM.NS": errors.New("connection reset"),
		},
	}
	recorder := &fakeRecorder{}
	c := newTestController(md, &fakeNewsStore{}, recorder)

	var events []ProgressEvent
	c.Progress = func(e ProgressEvent) { events = append(events, e) }

	result := c.RankUniverse(context.Background(),
		[]string{"AAA", "BBB", "MISSING", "BOOM"}, model.DefaultScoringConfig())

	if result.Processed != 2 {
		t.Fatalf("expected 2 processed tickers, got %d", result.Processed)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Ticker != "MISSING" {
		t.Fatalf("unexpected skipped list: %+v", result.Skipped)
	}
	if len(result.Failed) != 1 || result.Failed[0].Ticker != "BOOM" {
		t.Fatalf("unexpected failed list: %+v", result.Failed)
	}

	for i := 1; i < len(result.Ranked); i++ {
		prev, cur := result.Ranked[i-1], result.Ranked[i]
		if !prev.Alpha.FinalPick && cur.Alpha.FinalPick {
			t.Fatal("final picks must sort before non-picks")
		}
		if prev.Alpha.FinalPick == cur.Alpha.FinalPick && prev.Alpha.Alpha < cur.Alpha.Alpha {
			t.Fatal("ranking must be descending by alpha within a partition")
		}
	}

	if len(events) != 4 {
		t.Fatalf("expected 4 progress events, got %d", len(events))
	}
	if events[len(events)-1].Done != 4 || events[len(events)-1].Total != 4 {
		t.Fatalf("unexpected final progress event: %+v", events[len(events)-1])
	}
}

func TestRankUniverseCancellation(t *testing.T) {
	md := &fakeMarketData{
		series: map[string]model.OHLCVSeries{
			"AAA.NS": risingSeries("AAA.NS", 250),
		},
	}
	c := newTestController(md, &fakeNewsStore{}, &fakeRecorder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.RankUniverse(ctx, []string{"AAA", "BBB"}, model.DefaultScoringConfig())

	if result.Processed != 0 {
		t.Fatalf("cancelled batch must not process tickers, got %d", result.Processed)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("expected both tickers reported as failed, got %+v", result.Failed)
	}
}

func TestActiveConfigFallsBackToDefault(t *testing.T) {
	c := newTestController(&fakeMarketData{}, &fakeNewsStore{}, &fakeRecorder{})

	cfg, err := c.ActiveConfig(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}
	if cfg.Gates.AlphaMin != 70 || cfg.DedupExponent != 0.7 {
		t.Fatalf("expected default config, got %+v", cfg)
	}
}
