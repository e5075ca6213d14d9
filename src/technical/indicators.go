// Package technical derives the per-ticker indicator snapshot from a daily
// bar series. Indicators that cannot be computed from the available history
// are left at their zero value and excluded from the completeness count.
package technical

import (
	"errors"
	"math"

	"newsquant/src/model"
)

const (
	rsiPeriod       = 14
	atrPeriod       = 20
	smaShort        = 20
	smaMid          = 50
	smaLong         = 200
	volumeLookback  = 20
	breakoutWindow  = 20
	squeezeHistory  = 120
	squeezeQuintile = 0.2

	// Expected snapshot fields for the certainty score: rsi, sma20 distance,
	// momentum 3/10/20/60, volume ratio, atr, sma50 flag, sma200 flag,
	// squeeze, breakout.
	expectedFields = 12
)

var ErrNoBars = errors.New("technical: no bars for ticker")

// Snapshot computes the full indicator snapshot for the series.
// The series must be ordered oldest to newest.
func Snapshot(ticker string, series model.OHLCVSeries) (*model.TechnicalSnapshot, error) {
	if len(series) == 0 {
		return nil, ErrNoBars
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	last := len(closes) - 1

	snap := &model.TechnicalSnapshot{
		Ticker:         ticker,
		Close:          closes[last],
		FieldsExpected: expectedFields,
	}

	if rsi, ok := RSI(closes, rsiPeriod); ok {
		snap.RSI14 = rsi
		snap.FieldsPresent++
	}

	if sma, ok := SMA(closes, smaShort); ok && sma != 0 {
		snap.PriceVsSMA20Pct = (closes[last] - sma) / sma * 100
		snap.FieldsPresent++
	}

	for _, m := range []struct {
		days int
		dst  *float64
	}{
		{3, &snap.Momentum3dPct},
		{10, &snap.Momentum10dPct},
		{20, &snap.Momentum20dPct},
		{60, &snap.Momentum60dPct},
	} {
		if pct, ok := MomentumPct(closes, m.days); ok {
			*m.dst = pct
			snap.FieldsPresent++
		}
	}

	if ratio, ok := VolumeRatio(volumes, volumeLookback); ok {
		snap.VolumeRatio = ratio
		snap.FieldsPresent++
	}

	if atr, ok := ATR(highs, lows, closes, atrPeriod); ok {
		snap.ATR20 = atr
		snap.FieldsPresent++
	}

	if sma, ok := SMA(closes, smaMid); ok {
		snap.AboveSMA50 = closes[last] > sma
		snap.FieldsPresent++
	}
	if sma, ok := SMA(closes, smaLong); ok {
		snap.AboveSMA200 = closes[last] > sma
		snap.FieldsPresent++
	}

	if sq, ok := Squeeze(closes, smaShort, squeezeHistory); ok {
		snap.Squeeze = sq
		snap.FieldsPresent++
	}

	if sign, pos, ok := Breakout(closes, highs, lows, snap.ATR20, breakoutWindow); ok {
		snap.BreakoutSign = sign
		snap.PullbackZonePos = pos
		snap.FieldsPresent++
	}

	return snap, nil
}

// SMA returns the simple moving average of the trailing n values.
func SMA(values []float64, n int) (float64, bool) {
	if n <= 0 || len(values) < n {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n), true
}

// RSI computes the Wilder-smoothed relative strength index.
func RSI(closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}

	gains, losses := 0.0, 0.0
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	for i := period + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, true
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), true
}

// MomentumPct is the percentage change over the trailing n bars.
func MomentumPct(closes []float64, n int) (float64, bool) {
	if len(closes) < n+1 {
		return 0, false
	}
	base := closes[len(closes)-1-n]
	if base == 0 {
		return 0, false
	}
	return (closes[len(closes)-1] - base) / base * 100, true
}

// VolumeRatio compares the latest volume to the trailing n-bar average,
// current bar excluded.
func VolumeRatio(volumes []float64, n int) (float64, bool) {
	if len(volumes) < n+1 {
		return 0, false
	}
	window := volumes[len(volumes)-1-n : len(volumes)-1]
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	avg := sum / float64(n)
	if avg == 0 {
		return 0, false
	}
	return volumes[len(volumes)-1] / avg, true
}

// ATR computes the average true range over the trailing period bars.
func ATR(highs, lows, closes []float64, period int) (float64, bool) {
	if len(closes) < period+1 {
		return 0, false
	}
	sum := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - closes[i-1]); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - closes[i-1]); lc > tr {
			tr = lc
		}
		sum += tr
	}
	return sum / float64(period), true
}

// Squeeze reports whether the current Bollinger bandwidth sits in the bottom
// quintile of its trailing history, a volatility-compression setup.
func Squeeze(closes []float64, period, history int) (bool, bool) {
	if len(closes) < period+history {
		return false, false
	}

	widths := make([]float64, 0, history)
	for end := len(closes) - history; end <= len(closes); end++ {
		if end < period {
			continue
		}
		widths = append(widths, bandwidth(closes[:end], period))
	}
	if len(widths) < 2 {
		return false, false
	}

	current := widths[len(widths)-1]
	below := 0
	for _, w := range widths[:len(widths)-1] {
		if w < current {
			below++
		}
	}
	rank := float64(below) / float64(len(widths)-1)
	return rank <= squeezeQuintile, true
}

func bandwidth(closes []float64, period int) float64 {
	mean, _ := SMA(closes, period)
	if mean == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range closes[len(closes)-period:] {
		d := v - mean
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))
	return 4 * std / mean
}

// Breakout returns the breakout sign vs the prior window extremes and the
// position of the close inside the one-ATR pullback band under the breakout
// level (1 = at the level, 0 = at or below the band floor).
func Breakout(closes, highs, lows []float64, atr float64, window int) (sign int, pullbackPos float64, ok bool) {
	if len(closes) < window+1 {
		return 0, 0, false
	}
	last := len(closes) - 1

	priorHigh := math.Inf(-1)
	priorLow := math.Inf(1)
	for i := last - window; i < last; i++ {
		if highs[i] > priorHigh {
			priorHigh = highs[i]
		}
		if lows[i] < priorLow {
			priorLow = lows[i]
		}
	}

	switch {
	case closes[last] > priorHigh:
		sign = 1
	case closes[last] < priorLow:
		sign = -1
	}

	if atr > 0 {
		floor := priorHigh - atr
		pos := (closes[last] - floor) / atr
		if pos < 0 {
			pos = 0
		}
		if pos > 1 {
			pos = 1
		}
		pullbackPos = pos
	}

	return sign, pullbackPos, true
}
