// Package alpha ranks candidates by blending normalized technical factors
// with the news score, and gates final picks on hard admission criteria.
package alpha

import (
	"newsquant/src/model"
)

// Normalization ranges for the technical sub-metrics. Values beyond the
// range saturate at 0 or 1.
const (
	momentumFloorPct = -10.0
	momentumCeilPct  = 25.0
	rvolCeil         = 3.0
)

// Compute calculates the alpha value, its sub-metrics and the gate flags for
// one candidate. FinalPick is the AND of every gate; the per-gate flags are
// kept for diagnosis. Pure and deterministic.
func Compute(technical *model.TechnicalSnapshot, news *model.ScoreResult, cfg model.ScoringConfig) (*model.AlphaResult, error) {
	if technical == nil {
		return nil, ErrNoTechnical
	}

	metrics := model.AlphaMetrics{
		Momentum:     normalizeMomentum(technical.Momentum20dPct, technical.Momentum60dPct),
		RVol:         normalizeRVol(technical.VolumeRatio),
		SqueezeBreak: squeezeBreakComposite(technical),
		PullbackZone: technical.PullbackZonePos,
		News:         normalizeNews(news),
	}

	weights := cfg.AlphaWeights
	raw := weights["momentum"]*metrics.Momentum +
		weights["rvol"]*metrics.RVol +
		weights["squeeze_break"]*metrics.SqueezeBreak +
		weights["pullback_zone"]*metrics.PullbackZone +
		weights["news"]*metrics.News

	totalWeight := weights["momentum"] + weights["rvol"] + weights["squeeze_break"] +
		weights["pullback_zone"] + weights["news"]
	if totalWeight > 0 {
		raw /= totalWeight
	}

	alphaValue := model.Clamp100(raw * 100)

	gates := map[string]bool{
		model.GateAlpha:    alphaValue >= cfg.Gates.AlphaMin,
		model.GateRVol:     technical.VolumeRatio >= cfg.Gates.RVolMin,
		model.GateTrend:    technical.AboveSMA50,
		model.GateBreakout: technical.Squeeze || technical.BreakoutSign > 0,
	}

	finalPick := true
	for _, ok := range gates {
		if !ok {
			finalPick = false
			break
		}
	}

	result := &model.AlphaResult{
		Ticker:    technical.Ticker,
		Alpha:     alphaValue,
		Metrics:   metrics,
		GateFlags: gates,
		FinalPick: finalPick,
		Risk:      RiskLevelsFor(technical.Close, technical.ATR20),
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func normalizeMomentum(mom20, mom60 float64) float64 {
	// 20-day momentum leads, 60-day confirms.
	blended := 0.6*mom20 + 0.4*mom60
	return normalize(blended, momentumFloorPct, momentumCeilPct)
}

func normalizeRVol(ratio float64) float64 {
	return normalize(ratio, 0, rvolCeil)
}

func squeezeBreakComposite(t *model.TechnicalSnapshot) float64 {
	v := 0.0
	if t.Squeeze {
		v += 0.5
	}
	if t.BreakoutSign > 0 {
		v += 0.5
	} else if t.BreakoutSign < 0 {
		v -= 0.25
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizeNews(news *model.ScoreResult) float64 {
	if news == nil {
		return 0
	}
	return news.Score / 100
}

func normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	n := (v - lo) / (hi - lo)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
