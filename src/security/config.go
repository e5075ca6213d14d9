package security

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// OperatorTokenHash is the bcrypt hash of the token required for
	// config promotion over the API. Empty disables promotion.
	OperatorTokenHash string `envconfig:"OPERATOR_TOKEN_HASH"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
