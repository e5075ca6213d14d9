package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"newsquant/src/connectors"
	"newsquant/src/controller"
	"newsquant/src/evaluate"
	"newsquant/src/learning"
	"newsquant/src/model"
	"newsquant/src/repository"
	"newsquant/src/risk"
)

// suffixedBars maps plain tickers onto the provider symbols the bar table is
// keyed by, so the evaluator can look up prices for a prediction.
type suffixedBars struct {
	repo   *repository.OHLCVRepository
	suffix string
}

func (b suffixedBars) SeriesBetween(ctx context.Context, ticker string, from, to time.Time) (model.OHLCVSeries, error) {
	return b.repo.SeriesBetween(ctx, controller.NormalizeSymbol(ticker, b.suffix), from, to)
}

// Loop drives the pipeline on a fixed period: a universe scan on every tick,
// an evaluation pass every EvaluateEvery ticks, and a learning cycle every
// LearnEvery ticks. Cycle failures are logged and the loop keeps going; only
// context cancellation stops it.
type Loop struct {
	Config   Config
	Scan     func(ctx context.Context) error
	Evaluate func(ctx context.Context) error
	Learn    func(ctx context.Context) error

	// ScanGate, when set, suppresses the scan on ticks outside the trading
	// calendar. Evaluation and learning run regardless; they work off
	// stored data.
	ScanGate func(now time.Time) bool
}

func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.Config.LoopPeriod)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("loop stopped")
			return nil

		case <-ticker.C:
			tick++
			l.runTick(ctx, tick)
		}
	}
}

func (l *Loop) runTick(ctx context.Context, tick int) {
	logger.WithField("tick", tick).Info("loop tick")

	if l.Scan != nil {
		if l.ScanGate != nil && !l.ScanGate(time.Now()) {
			logger.Debug("market closed, skipping scan")
		} else if err := l.Scan(ctx); err != nil {
			logger.WithError(err).Error("Scan cycle failed")
		}
	}
	if l.Evaluate != nil && onCadence(tick, l.Config.EvaluateEvery) {
		if err := l.Evaluate(ctx); err != nil {
			logger.WithError(err).Error("Evaluation cycle failed")
		}
	}
	if l.Learn != nil && onCadence(tick, l.Config.LearnEvery) {
		if err := l.Learn(ctx); err != nil {
			logger.WithError(err).Error("Learning cycle failed")
		}
	}
}

func onCadence(tick, every int) bool {
	return every > 0 && tick%every == 0
}

// Hooks let a caller observe the pipeline, e.g. to feed the API server's
// rankings endpoint and websocket progress stream.
type Hooks struct {
	Progress  func(controller.ProgressEvent)
	BatchDone func(*controller.BatchResult)
}

// Pipeline bundles the wired components, shared by the loop and the one-shot
// CLI commands.
type Pipeline struct {
	Scan      *controller.ScanController
	Evaluator *evaluate.Evaluator
	Learner   *learning.Learner
	Universe  []string
}

// ScanOnce runs one universe scan with the active config.
func (p *Pipeline) ScanOnce(ctx context.Context) (*controller.BatchResult, error) {
	cfg, err := p.Scan.ActiveConfig(ctx)
	if err != nil {
		return nil, err
	}
	return p.Scan.RankUniverse(ctx, p.Universe, cfg), nil
}

// BuildPipeline wires the pipeline against the main database.
func BuildPipeline(hooks Hooks) *Pipeline {
	config := GetConfig()
	connConfig := connectors.GetConfig()
	ctrlConfig := controller.GetConfig()

	predictionRepo := repository.NewPredictionRepository()
	performanceRepo := repository.NewPerformanceRepository()
	statsRepo := repository.NewTickerStatsRepository()
	configRepo := repository.NewConfigRepository()
	newsRepo := repository.NewNewsRepository()
	ohlcvRepo := repository.NewOHLCVRepository()
	exceptionRepo := repository.NewExceptionRepository()

	scan := &controller.ScanController{
		MarketData: connectors.NewMarketDataClient(
			connConfig.MarketDataBaseURL, connConfig.RequestTimeout, connConfig.RetryAttempts),
		NewsStore:   newsRepo,
		Predictions: predictionRepo,
		Bars:        ohlcvRepo,
		Configs:     configRepo,
		Exceptions:  exceptionRepo,
		Config:      ctrlConfig,
		Progress:    hooks.Progress,
	}
	if connConfig.NewsBaseURL != "" {
		scan.News = connectors.NewNewsClient(
			connConfig.NewsBaseURL, connConfig.RequestTimeout, connConfig.RetryAttempts)
	}

	evaluator := &evaluate.Evaluator{
		Bars:        suffixedBars{repo: ohlcvRepo, suffix: ctrlConfig.SymbolSuffix},
		Predictions: predictionRepo,
		Records:     performanceRepo,
		Stats:       statsRepo,
	}

	learner := &learning.Learner{
		Records:   performanceRepo,
		Stats:     statsRepo,
		Configs:   configRepo,
		Window:    config.LearningWindow,
		AutoApply: config.AutoApply,
	}

	return &Pipeline{
		Scan:      scan,
		Evaluator: evaluator,
		Learner:   learner,
		Universe:  ctrlConfig.Universe,
	}
}

// StartLoop wires the full pipeline against the main database and runs it
// until the context is cancelled.
func StartLoop(ctx context.Context, hooks Hooks) error {
	config := GetConfig()
	pipeline := BuildPipeline(hooks)

	loop := &Loop{
		Config: config,
		Scan: func(ctx context.Context) error {
			// A scan that cannot finish inside the fetch budget must not
			// bleed into the next tick.
			ctx, cancel := context.WithTimeout(ctx, connectors.GetConfig().FetchBudget)
			defer cancel()

			batch, err := pipeline.ScanOnce(ctx)
			if err != nil {
				return err
			}
			if hooks.BatchDone != nil {
				hooks.BatchDone(batch)
			}
			return nil
		},
		Evaluate: func(ctx context.Context) error {
			_, err := pipeline.Evaluator.Run(ctx)
			return err
		},
		Learn: func(ctx context.Context) error {
			_, err := pipeline.Learner.Run(ctx)
			return err
		},
	}
	if config.TradingDaysOnly {
		loop.ScanGate = risk.InScanWindow
	}

	logger.WithFields(map[string]interface{}{
		"period":         config.LoopPeriod.String(),
		"evaluate_every": config.EvaluateEvery,
		"learn_every":    config.LearnEvery,
		"universe":       len(pipeline.Universe),
	}).Info("Starting pipeline loop")

	return loop.Run(ctx)
}
