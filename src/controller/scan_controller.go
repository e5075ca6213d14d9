package controller

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"newsquant/src/alpha"
	"newsquant/src/connectors"
	"newsquant/src/correction"
	"newsquant/src/model"
	"newsquant/src/scoring"
	"newsquant/src/technical"
)

type marketDataProvider interface {
	GetOHLCV(ctx context.Context, symbol string, days int) (model.OHLCVSeries, error)
	GetFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, error)
}

type newsProvider interface {
	GetArticles(ctx context.Context, ticker string, hoursBack int) ([]model.NewsItem, error)
}

type newsStore interface {
	UpsertArticles(ctx context.Context, articles []model.NewsItem) (int64, error)
	ListRecentByTicker(ctx context.Context, ticker string, hoursBack int) ([]model.NewsItem, error)
}

type predictionRecorder interface {
	Record(ctx context.Context, prediction *model.Prediction) error
}

type barStore interface {
	UpsertBars(ctx context.Context, bars []model.OHLCVBar) error
}

type configSource interface {
	GetActive(ctx context.Context) (*model.ConfigSnapshot, error)
}

type exceptionSink interface {
	Create(ctx context.Context, exception *model.Exception) error
}

// TickerReport is the full scoring outcome for one ticker in a cycle.
type TickerReport struct {
	Ticker     string                       `json:"ticker"`
	Score      *model.ScoreResult           `json:"score"`
	Alpha      *model.AlphaResult           `json:"alpha"`
	Correction *correction.Result           `json:"correction,omitempty"`
	Confidence float64                      `json:"correction_confidence,omitempty"`
	Filters    *correction.RiskFilterResult `json:"filters,omitempty"`
	Articles   int                          `json:"articles"`
	Catalyst   model.NewsType               `json:"catalyst"`
}

// SkippedTicker names a ticker excluded from the cycle and why.
type SkippedTicker struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// BatchResult is the batch summary for one universe scan. Individual ticker
// failures never abort the batch; they land in Skipped or Failed.
type BatchResult struct {
	Ranked    []*TickerReport `json:"ranked"`
	Picks     int             `json:"picks"`
	Processed int             `json:"processed"`
	Skipped   []SkippedTicker `json:"skipped"`
	Failed    []SkippedTicker `json:"failed"`
	StartedAt time.Time       `json:"started_at"`
	Elapsed   time.Duration   `json:"elapsed"`
}

// ProgressEvent is emitted after each ticker finishes, for live observers.
type ProgressEvent struct {
	Ticker string  `json:"ticker"`
	Done   int     `json:"done"`
	Total  int     `json:"total"`
	Status string  `json:"status"` // scored | skipped | failed
	Score  float64 `json:"score,omitempty"`
}

// ScanController runs the news-to-signal pipeline over a ticker universe.
type ScanController struct {
	MarketData  marketDataProvider
	News        newsProvider
	NewsStore   newsStore
	Predictions predictionRecorder
	Bars        barStore
	Configs     configSource
	Exceptions  exceptionSink

	Config Config

	// Progress, when set, receives one event per finished ticker.
	Progress func(ProgressEvent)

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (c *ScanController) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// ActiveConfig loads the promoted scoring config, falling back to the
// defaults when no snapshot has been promoted yet.
func (c *ScanController) ActiveConfig(ctx context.Context) (model.ScoringConfig, error) {
	snapshot, err := c.Configs.GetActive(ctx)
	if err != nil {
		return model.ScoringConfig{}, err
	}
	if snapshot == nil {
		return model.DefaultScoringConfig(), nil
	}
	return snapshot.Config()
}

// ScoreTicker runs the full pipeline for one ticker: fetch bars and news,
// compute the technical snapshot, score, rank, and record a prediction.
// A nil report with a nil error means the ticker was skipped (no data).
func (c *ScanController) ScoreTicker(ctx context.Context, ticker string, cfg model.ScoringConfig) (*TickerReport, error) {
	symbol := NormalizeSymbol(ticker, c.Config.SymbolSuffix)

	series, err := c.MarketData.GetOHLCV(ctx, symbol, c.Config.HistoryDays)
	if err != nil {
		if errors.Is(err, connectors.ErrNoData) || errors.Is(err, connectors.ErrRateLimited) {
			logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"symbol": symbol,
			}).WithError(err).Warn("No usable price data, skipping ticker")
			return nil, nil
		}
		return nil, err
	}

	if c.Bars != nil {
		if err := c.Bars.UpsertBars(ctx, series); err != nil {
			logger.WithField("ticker", ticker).WithError(err).Warn("Failed to persist bars, continuing")
		}
	}

	snapshot, err := technical.Snapshot(ticker, series)
	if err != nil {
		if errors.Is(err, technical.ErrNoBars) {
			return nil, nil
		}
		return nil, err
	}

	// Fundamentals are best effort; their absence only lowers certainty.
	fundamentals, err := c.MarketData.GetFundamentals(ctx, symbol)
	if err != nil {
		logger.WithField("ticker", ticker).WithError(err).Debug("No fundamentals for ticker")
		fundamentals = nil
	}

	articles := c.loadArticles(ctx, ticker)

	lead, leadScore := c.scoreArticles(articles, snapshot, fundamentals, cfg)
	if leadScore == nil {
		// No news at all still yields a technical-only score.
		leadScore, err = scoring.Score(nil, snapshot, fundamentals, cfg)
		if err != nil {
			return nil, err
		}
	} else if bonus := MultiplicityBonus(len(articles), cfg.DedupExponent); bonus > 0 {
		boosted := *leadScore
		boosted.Score = model.Clamp100(boosted.Score + bonus)
		boosted.ExpectedMovePct = scoring.ExpectedMovePct(boosted.Score, boosted.Sentiment)
		leadScore = &boosted
	}

	alphaResult, err := alpha.Compute(snapshot, leadScore, cfg)
	if err != nil {
		return nil, err
	}

	report := &TickerReport{
		Ticker:   ticker,
		Score:    leadScore,
		Alpha:    alphaResult,
		Articles: len(articles),
		Catalyst: model.NewsTypeGeneral,
	}
	if lead != nil {
		report.Catalyst = lead.NewsType
	}

	if corr := correction.Detect(ticker, series); corr.Detected {
		// Oversold reads highest when RSI is deep below the neutral band.
		oversold := model.Clamp100((70 - snapshot.RSI14) * 2.5)
		confidence := correction.Confidence(oversold, leadScore.Certainty, leadScore.Score)
		adjusted := correction.ApplySectorAdjustment(ticker, confidence, fundamentals)
		report.Correction = &corr
		report.Confidence = adjusted.AdjustedConfidence
	}
	if alphaResult.FinalPick {
		filters := correction.ApplyRiskFilters(fundamentals, leadScore.Certainty/100)
		report.Filters = &filters
	}

	if c.Predictions != nil {
		prediction := &model.Prediction{
			Ticker:          ticker,
			EventAt:         c.now().UTC(),
			Score:           leadScore.Score,
			Recommendation:  leadScore.Recommendation,
			InitialPrice:    snapshot.Close,
			ExpectedMovePct: leadScore.ExpectedMovePct,
			Certainty:       leadScore.Certainty,
			Catalyst:        report.Catalyst,
		}
		if err := c.Predictions.Record(ctx, prediction); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// loadArticles merges freshly fetched articles with what is already stored.
// Provider failures degrade to the stored set; they never fail the ticker.
func (c *ScanController) loadArticles(ctx context.Context, ticker string) []model.NewsItem {
	if c.News != nil {
		fetched, err := c.News.GetArticles(ctx, ticker, c.Config.NewsLookback)
		if err != nil {
			logger.WithField("ticker", ticker).WithError(err).Warn("News fetch failed, using stored articles")
		} else if len(fetched) > 0 && c.NewsStore != nil {
			if _, err := c.NewsStore.UpsertArticles(ctx, fetched); err != nil {
				logger.WithField("ticker", ticker).WithError(err).Warn("Failed to persist articles")
			}
		}
	}

	if c.NewsStore == nil {
		return nil
	}
	stored, err := c.NewsStore.ListRecentByTicker(ctx, ticker, c.Config.NewsLookback)
	if err != nil {
		logger.WithField("ticker", ticker).WithError(err).Warn("Failed to load stored articles")
		return nil
	}
	return stored
}

// scoreArticles scores every article and keeps the strongest one as the lead.
func (c *ScanController) scoreArticles(articles []model.NewsItem, snapshot *model.TechnicalSnapshot, fundamentals *model.Fundamentals, cfg model.ScoringConfig) (*model.NewsItem, *model.ScoreResult) {
	var (
		lead *model.NewsItem
		best *model.ScoreResult
	)
	for i := range articles {
		result, err := scoring.Score(&articles[i], snapshot, fundamentals, cfg)
		if err != nil {
			continue
		}
		if best == nil || result.Score > best.Score {
			lead = &articles[i]
			best = result
		}
	}
	return lead, best
}

// RankUniverse scans every ticker with a bounded worker pool and returns the
// batch ranked by alpha, final picks first. Cancellation is cooperative: no
// new ticker starts once ctx is done, and the partial batch is returned.
func (c *ScanController) RankUniverse(ctx context.Context, tickers []string, cfg model.ScoringConfig) *BatchResult {
	result := &BatchResult{StartedAt: c.now()}

	workers := c.Config.Workers
	if workers <= 0 {
		workers = 5
	}
	if len(tickers) > 0 && workers > len(tickers) {
		workers = len(tickers)
	}

	type outcome struct {
		ticker string
		report *TickerReport
		err    error
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		done      int
		semaphore = make(chan struct{}, workers)
		outcomes  = make([]outcome, 0, len(tickers))
	)

	for _, ticker := range tickers {
		if ctx.Err() != nil {
			mu.Lock()
			outcomes = append(outcomes, outcome{ticker: ticker, err: ctx.Err()})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			report, err := c.ScoreTicker(ctx, ticker, cfg)

			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, outcome{ticker: ticker, report: report, err: err})
			done++
			c.emit(ProgressEvent{
				Ticker: ticker,
				Done:   done,
				Total:  len(tickers),
				Status: progressStatus(report, err),
				Score:  progressScore(report),
			})
		}(ticker)
	}
	wg.Wait()

	for _, o := range outcomes {
		switch {
		case o.err != nil:
			Capture(ctx, c.Exceptions, "newsquant", "scan_controller", "ScoreTicker", "error", o.err,
				map[string]interface{}{"ticker": o.ticker})
			result.Failed = append(result.Failed, SkippedTicker{Ticker: o.ticker, Reason: o.err.Error()})
		case o.report == nil:
			result.Skipped = append(result.Skipped, SkippedTicker{Ticker: o.ticker, Reason: "no data"})
		default:
			result.Ranked = append(result.Ranked, o.report)
			result.Processed++
		}
	}

	// Final picks first, then descending alpha; ties by ticker for stability.
	sort.Slice(result.Ranked, func(i, j int) bool {
		a, b := result.Ranked[i], result.Ranked[j]
		if a.Alpha.FinalPick != b.Alpha.FinalPick {
			return a.Alpha.FinalPick
		}
		if a.Alpha.Alpha != b.Alpha.Alpha {
			return a.Alpha.Alpha > b.Alpha.Alpha
		}
		return a.Ticker < b.Ticker
	})
	for _, report := range result.Ranked {
		if report.Alpha.FinalPick {
			result.Picks++
		}
	}
	result.Elapsed = c.now().Sub(result.StartedAt)

	logger.WithFields(map[string]interface{}{
		"processed": result.Processed,
		"picks":     result.Picks,
		"skipped":   len(result.Skipped),
		"failed":    len(result.Failed),
		"elapsed":   result.Elapsed.String(),
	}).Info("Universe scan finished")

	return result
}

func (c *ScanController) emit(event ProgressEvent) {
	if c.Progress != nil {
		c.Progress(event)
	}
}

func progressStatus(report *TickerReport, err error) string {
	switch {
	case err != nil:
		return "failed"
	case report == nil:
		return "skipped"
	default:
		return "scored"
	}
}

func progressScore(report *TickerReport) float64 {
	if report == nil || report.Score == nil {
		return 0
	}
	return report.Score.Score
}
