package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Gate names used in AlphaResult.GateFlags.
const (
	GateAlpha    = "alpha"
	GateRVol     = "rvol"
	GateTrend    = "trend"
	GateBreakout = "breakout"
)

// AlphaMetrics are the normalized sub-metrics ([0,1]) behind an alpha value.
type AlphaMetrics struct {
	Momentum     float64 `json:"momentum"`
	RVol         float64 `json:"rvol"`
	SqueezeBreak float64 `json:"squeeze_break"`
	PullbackZone float64 `json:"pullback_zone"`
	News         float64 `json:"news"`
}

// RiskLevels are the deterministic ATR-multiple exit levels for a pick.
type RiskLevels struct {
	StopLoss     decimal.Decimal `json:"stop_loss"`
	TakeProfit1  decimal.Decimal `json:"take_profit_1"`
	TakeProfit2  decimal.Decimal `json:"take_profit_2"`
	TrailingStop decimal.Decimal `json:"trailing_stop"`
}

// AlphaResult is one ranked candidate. FinalPick and the gate flags are
// derived together; FinalPick is true only when every gate passed.
type AlphaResult struct {
	Ticker    string          `json:"ticker"`
	Alpha     float64         `json:"alpha"`
	Metrics   AlphaMetrics    `json:"metrics"`
	GateFlags map[string]bool `json:"gate_flags"`
	FinalPick bool            `json:"final_pick"`
	Risk      RiskLevels      `json:"risk"`
}

// Validate enforces the alpha range and the pick/gates invariant.
func (a *AlphaResult) Validate() error {
	if a.Alpha < 0 || a.Alpha > 100 {
		return fmt.Errorf("alpha %.2f outside [0,100]", a.Alpha)
	}
	if a.FinalPick {
		for name, ok := range a.GateFlags {
			if !ok {
				return fmt.Errorf("final_pick set with failing gate %q", name)
			}
		}
	}
	return nil
}
