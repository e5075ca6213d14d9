package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"

	"newsquant/src/model"
)

type predictionSource interface {
	GetActive(ctx context.Context) ([]model.Prediction, error)
	GetActiveByTicker(ctx context.Context, ticker string) (*model.Prediction, error)
}

// PredictionsHandler lists active predictions, optionally filtered to one
// ticker via ?ticker=.
func PredictionsHandler(repo predictionSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if ticker := r.URL.Query().Get("ticker"); ticker != "" {
			prediction, err := repo.GetActiveByTicker(r.Context(), ticker)
			if err != nil {
				logger.WithError(err).Error("failed to fetch prediction")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if prediction == nil {
				http.Error(w, "no active prediction for ticker", http.StatusNotFound)
				return
			}
			if err := json.NewEncoder(w).Encode(prediction); err != nil {
				logger.WithError(err).Error("failed to encode prediction response")
			}
			return
		}

		predictions, err := repo.GetActive(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to list predictions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if predictions == nil {
			predictions = []model.Prediction{}
		}
		if err := json.NewEncoder(w).Encode(predictions); err != nil {
			logger.WithError(err).Error("failed to encode predictions response")
		}
	}
}

type performanceSource interface {
	ListSince(ctx context.Context, cutoff time.Time) ([]model.PerformanceRecord, error)
}

// PerformanceHandler lists evaluation records since ?since= (RFC3339),
// defaulting to the last 30 days.
func PerformanceHandler(repo performanceSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cutoff := time.Now().AddDate(0, 0, -30)
		if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
			parsed, err := time.Parse(time.RFC3339, sinceParam)
			if err != nil {
				http.Error(w, "invalid since", http.StatusBadRequest)
				return
			}
			cutoff = parsed
		}

		records, err := repo.ListSince(r.Context(), cutoff)
		if err != nil {
			logger.WithError(err).Error("failed to list performance records")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []model.PerformanceRecord{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			logger.WithError(err).Error("failed to encode performance response")
		}
	}
}
