package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCVBar is one daily price bar for a symbol.
// Bars are upserted on (symbol, datetime) so backfills are idempotent.
type OHLCVBar struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Symbol   string          `json:"symbol"   gorm:"type:varchar(50);not null;uniqueIndex:ux_ohlcv_bars_symbol_datetime,priority:1;index:idx_ohlcv_bars_symbol_datetime,priority:1"`
	Datetime time.Time       `json:"datetime" gorm:"not null;uniqueIndex:ux_ohlcv_bars_symbol_datetime,priority:2;index:idx_ohlcv_bars_symbol_datetime,priority:2;index:idx_ohlcv_bars_datetime"`
	Open     decimal.Decimal `json:"open"   gorm:"type:double precision;not null"`
	High     decimal.Decimal `json:"high"   gorm:"type:double precision;not null"`
	Low      decimal.Decimal `json:"low"    gorm:"type:double precision;not null"`
	Close    decimal.Decimal `json:"close"  gorm:"type:double precision;not null"`
	Volume   decimal.Decimal `json:"volume" gorm:"type:double precision;not null"`
}

func (OHLCVBar) TableName() string {
	return "ohlcv_bars"
}

// OHLCVSeries is a bar series ordered oldest to newest.
type OHLCVSeries []OHLCVBar

// Closes returns the close column as float64 values.
func (s OHLCVSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Close.InexactFloat64()
	}
	return out
}

// Highs returns the high column as float64 values.
func (s OHLCVSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].High.InexactFloat64()
	}
	return out
}

// Lows returns the low column as float64 values.
func (s OHLCVSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Low.InexactFloat64()
	}
	return out
}

// Volumes returns the volume column as float64 values.
func (s OHLCVSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i := range s {
		out[i] = s[i].Volume.InexactFloat64()
	}
	return out
}

// FirstAtOrAfter returns the index of the first bar whose datetime is at or
// after ts, or -1 when no such bar exists.
func (s OHLCVSeries) FirstAtOrAfter(ts time.Time) int {
	for i := range s {
		if !s[i].Datetime.Before(ts) {
			return i
		}
	}
	return -1
}
