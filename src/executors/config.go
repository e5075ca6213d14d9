package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// LoopPeriod is the time between universe scans.
	LoopPeriod time.Duration `envconfig:"LOOP_PERIOD" default:"15m"`

	// EvaluateEvery and LearnEvery are cadences counted in scan ticks:
	// an evaluation pass runs every Nth tick, a learning cycle every Mth.
	EvaluateEvery int `envconfig:"EVALUATE_EVERY" default:"4"`
	LearnEvery    int `envconfig:"LEARN_EVERY" default:"16"`

	// LearningWindow bounds the evidence fed to each learning cycle.
	LearningWindow time.Duration `envconfig:"LEARNING_WINDOW" default:"720h"`

	// AutoApply promotes learner drafts immediately instead of waiting for
	// operator review.
	AutoApply bool `envconfig:"LEARN_AUTO_APPLY" default:"false"`

	// TradingDaysOnly skips scans on weekends and exchange holidays.
	TradingDaysOnly bool `envconfig:"SCAN_TRADING_DAYS_ONLY" default:"true"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
