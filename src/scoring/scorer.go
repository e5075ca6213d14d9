// Package scoring implements the deterministic multi-factor news + technical
// scorer. Score is pure: same inputs and config always give the same result.
package scoring

import (
	"errors"

	"newsquant/src/extract"
	"newsquant/src/model"
)

var ErrNoTechnical = errors.New("scoring: technical snapshot is required")

// Sub-score point budgets. News, technical and volume contribute up to
// 40/40/20 points respectively, i.e. a 40/40/20 weighting of the final score.
const (
	newsCap      = 40.0
	technicalCap = 40.0
	volumeCap    = 20.0
)

// Default news sub-scores used when no figure can be extracted from the text.
const (
	defaultEarningsScore = 15.0
	defaultDividendScore = 12.0
	defaultMAScore       = 18.0
	sectorScore          = 15.0
)

const methodTag = "quantitative"

// Score computes the investment score for one news item against the current
// technical state. Extraction misses fall back to documented defaults and are
// never surfaced as errors; the only error case is a missing snapshot.
func Score(news *model.NewsItem, technical *model.TechnicalSnapshot, fundamentals *model.Fundamentals, cfg model.ScoringConfig) (*model.ScoreResult, error) {
	if technical == nil {
		return nil, ErrNoTechnical
	}

	newsPoints := newsSubScore(news, fundamentals)

	if news != nil {
		if w, ok := cfg.CatalystWeights[news.NewsType]; ok {
			newsPoints *= w
		}
	}
	maxNews := newsCap
	if c, ok := cfg.FeatureCaps["news"]; ok {
		maxNews = c
	}
	if newsPoints > maxNews {
		newsPoints = maxNews
	}

	technicalPoints := technicalSubScore(technical)
	volumePoints := volumeSubScore(technical.VolumeRatio)

	score := newsPoints + technicalPoints + volumePoints

	if news != nil {
		score += cfg.EventBonus[news.NewsType]
		score += cfg.SourceBonus[news.Source]
		score += cfg.TickerPenalty[news.Ticker]
	}
	score = model.Clamp100(score)

	sentiment := model.SentimentNeutral
	switch {
	case score > 65:
		sentiment = model.SentimentBullish
	case score < 45:
		sentiment = model.SentimentBearish
	}

	recommendation := model.RecommendationHold
	switch {
	case score > 70:
		recommendation = model.RecommendationBuy
	case score < 35:
		recommendation = model.RecommendationSell
	}

	result := &model.ScoreResult{
		Ticker:          technical.Ticker,
		Score:           score,
		Sentiment:       sentiment,
		Certainty:       certainty(technical, fundamentals),
		Recommendation:  recommendation,
		ExpectedMovePct: ExpectedMovePct(score, sentiment),
		Breakdown: model.ScoreBreakdown{
			News:      newsPoints,
			Technical: technicalPoints,
			Volume:    volumePoints,
		},
		Method: methodTag,
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func newsSubScore(news *model.NewsItem, fundamentals *model.Fundamentals) float64 {
	if news == nil {
		return defaultEarningsScore
	}

	text := news.Headline + " " + news.Body

	switch news.NewsType {
	case model.NewsTypeEarnings:
		growth, ok := extract.GrowthPct(text)
		if !ok {
			return defaultEarningsScore
		}
		switch {
		case growth > 30:
			return 35
		case growth > 20:
			return 30
		case growth > 10:
			return 25
		case growth > 5:
			return 20
		case growth > 0:
			return 15
		case growth > -5:
			return 10
		case growth > -10:
			return 5
		default:
			return 0
		}

	case model.NewsTypeDividend:
		yield, ok := extract.DividendYieldPct(text)
		if !ok {
			return defaultDividendScore
		}
		switch {
		case yield > 4:
			return 25
		case yield > 3:
			return 20
		case yield > 2:
			return 15
		default:
			return 10
		}

	case model.NewsTypeMA:
		dealSize, ok := extract.DealSizeCrore(text)
		if !ok || fundamentals == nil || fundamentals.MarketCap == nil || *fundamentals.MarketCap <= 0 {
			return defaultMAScore
		}
		impactPct := dealSize / *fundamentals.MarketCap * 100
		switch {
		case impactPct > 15:
			return 35
		case impactPct > 10:
			return 30
		case impactPct > 5:
			return 25
		default:
			return 15
		}

	case model.NewsTypeSector:
		return sectorScore

	default:
		positive, negative := extract.SentimentCounts(text)
		switch {
		case float64(positive) > 1.5*float64(negative):
			return 20
		case float64(negative) > 1.5*float64(positive):
			return 5
		default:
			return 12
		}
	}
}

func technicalSubScore(t *model.TechnicalSnapshot) float64 {
	// RSI, max 15. The neutral zone scores best; overbought worst.
	rsiScore := 10.0
	switch {
	case t.RSI14 >= 45 && t.RSI14 <= 55:
		rsiScore = 12
	case t.RSI14 >= 40 && t.RSI14 <= 60:
		rsiScore = 10
	case t.RSI14 > 70:
		rsiScore = 6
	case t.RSI14 < 30:
		rsiScore = 8
	}

	// Trend vs SMA20, max 15. A mild positive trend scores highest; an
	// overextended one scores lower.
	trendScore := 4.0
	switch {
	case t.PriceVsSMA20Pct > 5:
		trendScore = 12
	case t.PriceVsSMA20Pct > 2:
		trendScore = 14
	case t.PriceVsSMA20Pct > 0:
		trendScore = 15
	case t.PriceVsSMA20Pct > -2:
		trendScore = 12
	case t.PriceVsSMA20Pct > -5:
		trendScore = 8
	}

	// 10-day momentum, max 10.
	momentumScore := 3.0
	switch {
	case t.Momentum10dPct > 15:
		momentumScore = 10
	case t.Momentum10dPct > 10:
		momentumScore = 9
	case t.Momentum10dPct > 5:
		momentumScore = 8
	case t.Momentum10dPct > 0:
		momentumScore = 7
	case t.Momentum10dPct > -5:
		momentumScore = 5
	}

	total := rsiScore + trendScore + momentumScore
	if total > technicalCap {
		total = technicalCap
	}
	return total
}

func volumeSubScore(ratio float64) float64 {
	switch {
	case ratio > 2.5:
		return 20
	case ratio > 2.0:
		return 18
	case ratio > 1.5:
		return 15
	case ratio > 1.2:
		return 12
	case ratio > 0.8:
		return 10
	default:
		return 8
	}
}

func certainty(t *model.TechnicalSnapshot, f *model.Fundamentals) float64 {
	present := t.FieldsPresent
	expected := t.FieldsExpected

	// Fundamental fields extend the completeness denominator.
	expected += 7
	if f != nil {
		if f.MarketCap != nil {
			present++
		}
		if f.Sector != "" {
			present++
		}
		if f.DebtToEquity != nil {
			present++
		}
		if f.CurrentRatio != nil {
			present++
		}
		if f.Beta != nil {
			present++
		}
		if f.ListingYears != nil {
			present++
		}
		if f.AvgVolume30d != nil {
			present++
		}
	}

	if expected == 0 {
		return 0
	}
	return model.Clamp100(float64(present) / float64(expected) * 100)
}

// ExpectedMovePct maps (score, sentiment) onto an expected price move. The
// magnitude is monotonic in the score; the sign follows the sentiment, with
// neutral reads damped toward zero.
func ExpectedMovePct(score float64, sentiment model.Sentiment) float64 {
	var magnitude float64
	switch {
	case score >= 85:
		magnitude = 8
	case score >= 75:
		magnitude = 6
	case score >= 65:
		magnitude = 5
	case score >= 55:
		magnitude = 3.5
	case score >= 45:
		magnitude = 2
	default:
		magnitude = 1
	}

	switch sentiment {
	case model.SentimentBearish:
		return -magnitude
	case model.SentimentNeutral:
		return magnitude * 0.25
	default:
		return magnitude
	}
}
