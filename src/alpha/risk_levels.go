package alpha

import (
	"errors"

	"github.com/shopspring/decimal"

	"newsquant/src/model"
)

var ErrNoTechnical = errors.New("alpha: technical snapshot is required")

// Fixed ATR multiples for the exit levels. These are deterministic risk
// parameters, not learned values.
var (
	stopLossATRMult     = decimal.RequireFromString("1.5")
	takeProfit1ATRMult  = decimal.RequireFromString("1.5")
	takeProfit2ATRMult  = decimal.RequireFromString("3")
	trailingStopATRMult = decimal.RequireFromString("2.5")
)

// RiskLevelsFor derives stop-loss, take-profit and trailing-stop levels from
// the close price and the 20-bar ATR.
func RiskLevelsFor(closePrice, atr20 float64) model.RiskLevels {
	if closePrice <= 0 || atr20 <= 0 {
		return model.RiskLevels{}
	}

	c := decimal.NewFromFloat(closePrice)
	a := decimal.NewFromFloat(atr20)

	return model.RiskLevels{
		StopLoss:     c.Sub(a.Mul(stopLossATRMult)),
		TakeProfit1:  c.Add(a.Mul(takeProfit1ATRMult)),
		TakeProfit2:  c.Add(a.Mul(takeProfit2ATRMult)),
		TrailingStop: c.Sub(a.Mul(trailingStopATRMult)),
	}
}
