package model

import "fmt"

type Sentiment string

const (
	SentimentBullish Sentiment = "bullish"
	SentimentNeutral Sentiment = "neutral"
	SentimentBearish Sentiment = "bearish"
)

type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationHold Recommendation = "HOLD"
	RecommendationSell Recommendation = "SELL"
)

// ScoreBreakdown carries the weighted sub-scores that produced the final score.
type ScoreBreakdown struct {
	News      float64 `json:"news"`
	Technical float64 `json:"technical"`
	Volume    float64 `json:"volume"`
}

// ScoreResult is the output of the quantitative scorer. Immutable.
type ScoreResult struct {
	Ticker          string         `json:"ticker"`
	Score           float64        `json:"score"`
	Sentiment       Sentiment      `json:"sentiment"`
	Certainty       float64        `json:"certainty"`
	Recommendation  Recommendation `json:"recommendation"`
	ExpectedMovePct float64        `json:"expected_move_pct"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	Method          string         `json:"method"`
}

// Validate rejects out-of-range results at the boundary so bad values never
// reach persistence or gating logic.
func (s *ScoreResult) Validate() error {
	if s.Score < 0 || s.Score > 100 {
		return fmt.Errorf("score %.2f outside [0,100]", s.Score)
	}
	if s.Certainty < 0 || s.Certainty > 100 {
		return fmt.Errorf("certainty %.2f outside [0,100]", s.Certainty)
	}
	switch s.Sentiment {
	case SentimentBullish, SentimentNeutral, SentimentBearish:
	default:
		return fmt.Errorf("unknown sentiment %q", s.Sentiment)
	}
	switch s.Recommendation {
	case RecommendationBuy, RecommendationHold, RecommendationSell:
	default:
		return fmt.Errorf("unknown recommendation %q", s.Recommendation)
	}
	return nil
}

// Clamp100 bounds v to [0, 100].
func Clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
