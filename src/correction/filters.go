package correction

import "newsquant/src/model"

// ----- risk filter thresholds -----

const (
	MaxDebtToEquity   = 2.0
	MinCurrentRatio   = 1.0
	MinMarketCapCrore = 500.0
	MinLiquidityRatio = 0.5 // today's volume vs 30-day average
	MinBeta           = 0.2
	MaxBeta           = 2.5
	MinListingYears   = 2.0
	MinConfidence     = 0.5
)

// Filter names reported in RiskFilterResult.Failed.
const (
	FilterDebtToEquity = "debt_to_equity"
	FilterCurrentRatio = "current_ratio"
	FilterMarketCap    = "market_cap"
	FilterLiquidity    = "liquidity"
	FilterBeta         = "beta"
	FilterListingAge   = "listing_age"
	FilterConfidence   = "confidence"
)

// RiskFilterResult reports the boolean gate outcome and which filters failed.
type RiskFilterResult struct {
	Passed bool     `json:"passed"`
	Failed []string `json:"failed,omitempty"`
}

// ApplyRiskFilters gates a correction candidate on balance-sheet and
// liquidity sanity. A filter whose input figure is missing fails closed: a
// candidate must prove it is safe, not merely avoid disproof.
func ApplyRiskFilters(fundamentals *model.Fundamentals, confidence float64) RiskFilterResult {
	var failed []string

	if fundamentals == nil {
		failed = append(failed,
			FilterDebtToEquity, FilterCurrentRatio, FilterMarketCap,
			FilterLiquidity, FilterBeta, FilterListingAge)
	} else {
		if fundamentals.DebtToEquity == nil || *fundamentals.DebtToEquity > MaxDebtToEquity {
			failed = append(failed, FilterDebtToEquity)
		}
		if fundamentals.CurrentRatio == nil || *fundamentals.CurrentRatio < MinCurrentRatio {
			failed = append(failed, FilterCurrentRatio)
		}
		if fundamentals.MarketCap == nil || *fundamentals.MarketCap < MinMarketCapCrore {
			failed = append(failed, FilterMarketCap)
		}
		if fundamentals.Volume == nil || fundamentals.AvgVolume30d == nil ||
			*fundamentals.AvgVolume30d <= 0 ||
			*fundamentals.Volume / *fundamentals.AvgVolume30d < MinLiquidityRatio {
			failed = append(failed, FilterLiquidity)
		}
		if fundamentals.Beta == nil || *fundamentals.Beta < MinBeta || *fundamentals.Beta > MaxBeta {
			failed = append(failed, FilterBeta)
		}
		if fundamentals.ListingYears == nil || *fundamentals.ListingYears < MinListingYears {
			failed = append(failed, FilterListingAge)
		}
	}

	if confidence < MinConfidence {
		failed = append(failed, FilterConfidence)
	}

	return RiskFilterResult{Passed: len(failed) == 0, Failed: failed}
}
