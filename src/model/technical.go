package model

// TechnicalSnapshot carries the per-ticker indicator state for one scoring
// cycle. It is recomputed from the bar series every cycle and never persisted.
type TechnicalSnapshot struct {
	Ticker string  `json:"ticker"`
	Close  float64 `json:"close"`

	RSI14           float64 `json:"rsi_14"`
	PriceVsSMA20Pct float64 `json:"price_vs_sma20_pct"`
	Momentum3dPct   float64 `json:"momentum_3d_pct"`
	Momentum10dPct  float64 `json:"momentum_10d_pct"`
	Momentum20dPct  float64 `json:"momentum_20d_pct"`
	Momentum60dPct  float64 `json:"momentum_60d_pct"`
	VolumeRatio     float64 `json:"volume_ratio"`
	ATR20           float64 `json:"atr20"`

	AboveSMA50  bool `json:"above_sma50"`
	AboveSMA200 bool `json:"above_sma200"`
	Squeeze     bool `json:"squeeze"`

	// BreakoutSign is +1 on a close above the prior 20-bar high, -1 on a close
	// below the prior 20-bar low, 0 otherwise.
	BreakoutSign int `json:"breakout_sign"`

	// PullbackZonePos is the position of the close inside the pullback band
	// below the 20-bar breakout level, in [0,1]; 1 means at the level.
	PullbackZonePos float64 `json:"pullback_zone_pos"`

	// FieldsPresent / FieldsExpected drive the certainty score.
	FieldsPresent  int `json:"fields_present"`
	FieldsExpected int `json:"fields_expected"`
}

// Completeness returns the fraction of expected fields that were computable.
func (t *TechnicalSnapshot) Completeness() float64 {
	if t == nil || t.FieldsExpected <= 0 {
		return 0
	}
	f := float64(t.FieldsPresent) / float64(t.FieldsExpected)
	if f > 1 {
		return 1
	}
	return f
}

// Fundamentals is the snapshot returned by the market-data provider for risk
// filtering and M&A deal-impact sizing. Pointer fields are nil when the
// provider had no figure.
type Fundamentals struct {
	Ticker       string   `json:"ticker"`
	MarketCap    *float64 `json:"market_cap,omitempty"`
	Sector       string   `json:"sector,omitempty"`
	DebtToEquity *float64 `json:"debt_to_equity,omitempty"`
	CurrentRatio *float64 `json:"current_ratio,omitempty"`
	Beta         *float64 `json:"beta,omitempty"`
	ListingYears *float64 `json:"listing_years,omitempty"`
	AvgVolume30d *float64 `json:"avg_volume_30d,omitempty"`
	Volume       *float64 `json:"volume,omitempty"`
}
