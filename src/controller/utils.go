package controller

import (
	"context"
	"encoding/json"
	"math"
	"runtime/debug"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"newsquant/src/model"
)

// NormalizeSymbol maps a plain ticker onto the market-data provider's symbol,
// appending the exchange suffix when it is not already present.
// Examples with suffix ".NS":
//
//	TATASTEEL    -> TATASTEEL.NS
//	tatasteel.ns -> TATASTEEL.NS
func NormalizeSymbol(ticker, suffix string) string {
	s := strings.ToUpper(strings.TrimSpace(ticker))
	if s == "" || suffix == "" {
		return s
	}
	if strings.HasSuffix(s, strings.ToUpper(suffix)) {
		return s
	}
	return s + strings.ToUpper(suffix)
}

// MultiplicityBonus is the diminishing score bonus for repeated coverage: n
// articles on the same ticker add n^exponent - 1 points, capped at 10, so a
// second source matters and the twentieth barely does.
func MultiplicityBonus(n int, exponent float64) float64 {
	if n <= 1 || exponent <= 0 {
		return 0
	}
	bonus := math.Pow(float64(n), exponent) - 1
	if bonus > 10 {
		bonus = 10
	}
	return bonus
}

// Capture records a system exception, logs it locally, and optionally
// persists it in the database.
func Capture(
	ctx context.Context,
	repo exceptionSink,
	service string,
	module string,
	method string,
	level string,
	err error,
	contextData map[string]interface{},
) {

	if err == nil {
		return
	}

	var ctxJSON string
	if contextData != nil {
		if b, e := json.Marshal(contextData); e == nil {
			ctxJSON = string(b)
		}
	}

	exc := &model.Exception{
		Service:   service,
		Module:    module,
		Method:    method,
		Message:   err.Error(),
		Stack:     string(debug.Stack()),
		Level:     level,
		Context:   ctxJSON,
		CreatedAt: time.Now(),
	}

	// Local log
	logger.WithFields(map[string]interface{}{
		"service": service,
		"module":  module,
		"method":  method,
		"level":   level,
	}).WithError(err).Error("System exception captured")

	// Persist in database
	if repo != nil {
		if e := repo.Create(ctx, exc); e != nil {
			logger.WithError(e).Error("Failed to persist exception")
		}
	}
}
