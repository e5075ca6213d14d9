package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	MarketDataBaseURL string        `envconfig:"MARKET_DATA_BASE_URL" default:"https://query1.finance.yahoo.com"`
	NewsBaseURL       string        `envconfig:"NEWS_BASE_URL" default:""`
	RequestTimeout    time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	RetryAttempts     int           `envconfig:"RETRY_ATTEMPTS" default:"5"`

	// FetchBudget caps the total wall-clock time spent on retries for one
	// batch cycle; a ticker that cannot be fetched inside it is skipped.
	FetchBudget time.Duration `envconfig:"FETCH_BUDGET" default:"12m"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
