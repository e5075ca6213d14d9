package controller

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Universe is the comma-separated ticker list scanned each cycle.
	Universe []string `envconfig:"UNIVERSE" default:"RELIANCE,TATASTEEL,INFY,HDFCBANK,TATAMOTORS"`

	// SymbolSuffix is appended to tickers for the market-data provider,
	// e.g. ".NS" for NSE symbols on the chart API.
	SymbolSuffix string `envconfig:"SYMBOL_SUFFIX" default:".NS"`

	Workers      int `envconfig:"SCAN_WORKERS" default:"5"`
	HistoryDays  int `envconfig:"HISTORY_DAYS" default:"365"`
	NewsLookback int `envconfig:"NEWS_LOOKBACK_HOURS" default:"48"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
