package ohlcvcrypto

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"

	"newsquant/src/model"
	"newsquant/src/repository"
	"newsquant/src/utils"
)

const (
	Duration1h = "1h"
	Duration1d = "1d"
)

// OHLCVCrypto backfills exchange candles into the shared bar table, so the
// crypto side of the universe gets the same evaluation path as equities.
type OHLCVCrypto struct {
	Log      *logger.Entry
	DB       *gorm.DB
	Config   *Config
	exchange goex.API
	repo     *repository.OHLCVRepository
}

func (o *OHLCVCrypto) Start() error {
	o.Config = GetConfig()

	o.exchange = o.newBinanceInstance()
	o.repo = repository.NewOHLCVRepository().WithDB(o.DB)

	ctx := context.Background()

	if o.Config.AutoMode {
		if err := o.determineStartPoint(ctx); err != nil {
			return err
		}
	}

	return o.aggregateAndSave(ctx)
}

func (*OHLCVCrypto) newBinanceInstance() *binance.Binance {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return binance.NewWithConfig(apiConfig)
}

func (o *OHLCVCrypto) pairSymbol() string {
	return o.Config.Symbol + "_" + o.Config.Quote
}

func (o *OHLCVCrypto) aggregateAndSave(ctx context.Context) error {
	klines, err := o.fetchOHLCVSeries()
	if err != nil {
		return err
	}

	bars := make([]model.OHLCVBar, 0, len(klines))
	for i := range klines {
		k := klines[i]

		datetime := time.Unix(k.Timestamp, 0).UTC()
		if o.Config.DurationStr == Duration1h {
			datetime = utils.ResetTime(datetime, "hour")
		}

		bars = append(bars, model.OHLCVBar{
			Symbol:   k.Pair.String(),
			Datetime: datetime,
			Open:     decimal.NewFromFloat(k.Open),
			High:     decimal.NewFromFloat(k.High),
			Low:      decimal.NewFromFloat(k.Low),
			Close:    decimal.NewFromFloat(k.Close),
			Volume:   decimal.NewFromFloat(k.Vol),
		})
	}

	if err := o.repo.UpsertBars(ctx, bars); err != nil {
		o.Log.WithError(err).Error("aggregateAndSave, UpsertBars, ")
		return err
	}

	o.Log.WithFields(logger.Fields{
		"Symbol": o.pairSymbol(),
		"Bars":   len(bars),
	}).Info("OHLCV data inserted or updated in database")

	return nil
}

func (o *OHLCVCrypto) determineStartPoint(ctx context.Context) error {
	o.Config.StartDt = o.Config.StartDt.Add(-o.parseDuration())
	o.Config.EndDt = time.Now()

	latest, err := o.repo.LatestDatetime(ctx, o.pairSymbol())
	if err != nil {
		o.Log.WithError(err).Error("Failed to query latest datetime")
		return err
	}

	if latest.IsZero() {
		// No data yet, start from the configured StartDt.
		o.Log.
			WithField("StartDt", o.Config.StartDt.String()).
			WithField("EndDt", o.Config.EndDt.String()).
			Info("determineStartPoint no existing bars found")
		return nil
	}

	// Overlap one interval so the still-open candle gets rewritten.
	o.Config.StartDt = latest.Add(-o.parseDuration())
	o.Log.
		WithField("StartDt", o.Config.StartDt.String()).
		WithField("EndDt", o.Config.EndDt.String()).
		Info("determineStartPoint valid date found")

	return nil
}

func (o *OHLCVCrypto) fetchOHLCVSeries() ([]goex.Kline, error) {
	targetSymbol := goex.NewCurrencyPair(goex.Currency{Symbol: o.Config.Symbol}, goex.Currency{Symbol: o.Config.Quote})

	const millis = 1000
	klines, err := o.exchange.GetKlineRecords(
		targetSymbol,
		o.parseDurationToGoex(),
		o.Config.Limit,
		goex.OptionalParameter{}.
			Optional("startTime", o.Config.StartDt.Unix()*millis).
			Optional("endTime", o.Config.EndDt.Unix()*millis),
	)
	if err != nil {
		return nil, err
	}

	return klines, nil
}

func (o *OHLCVCrypto) parseDuration() time.Duration {
	var duration time.Duration
	switch o.Config.DurationStr {
	case Duration1h:
		duration = time.Hour
	case Duration1d:
		duration = 24 * time.Hour
	default:
		panic("invalid DURATION env var")
	}
	return duration
}

func (o *OHLCVCrypto) parseDurationToGoex() goex.KlinePeriod {
	var duration goex.KlinePeriod
	switch o.Config.DurationStr {
	case Duration1h:
		duration = goex.KLINE_PERIOD_1H
	case Duration1d:
		duration = goex.KLINE_PERIOD_1DAY
	default:
		panic("invalid DURATION env var")
	}
	return duration
}
