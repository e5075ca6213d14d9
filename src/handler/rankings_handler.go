package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	logger "github.com/sirupsen/logrus"

	"newsquant/src/controller"
)

// LatestBatch holds the most recent universe scan for the API. The loop
// writes it after every cycle; readers get a consistent snapshot.
type LatestBatch struct {
	mu    sync.RWMutex
	batch *controller.BatchResult
}

func (l *LatestBatch) Set(batch *controller.BatchResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.batch = batch
}

func (l *LatestBatch) Get() *controller.BatchResult {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.batch
}

// RankingsHandler serves the latest scan, 404 until the first cycle finishes.
func RankingsHandler(latest *LatestBatch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch := latest.Get()
		if batch == nil {
			http.Error(w, "no scan completed yet", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(batch); err != nil {
			logger.WithError(err).Error("failed to encode rankings response")
		}
	}
}
