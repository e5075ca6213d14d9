package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"newsquant/src/model"
	"newsquant/src/repository"
	"newsquant/src/security"
)

type configSource interface {
	GetActive(ctx context.Context) (*model.ConfigSnapshot, error)
}

type configPromoter interface {
	Promote(ctx context.Context, version int) error
}

type configResponse struct {
	Version   int                 `json:"version"`
	Status    string              `json:"status"`
	Config    model.ScoringConfig `json:"config"`
	Insights  string              `json:"insights,omitempty"`
	CreatedAt time.Time           `json:"created_at,omitempty"`
}

// ActiveConfigHandler serves the promoted scoring config. Before any learning
// cycle has been promoted it returns the built-in defaults as version 0.
func ActiveConfigHandler(repo configSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := repo.GetActive(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to fetch active config")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		response := configResponse{
			Version: 0,
			Status:  model.ConfigStatusActive,
			Config:  model.DefaultScoringConfig(),
		}
		if snapshot != nil {
			cfg, err := snapshot.Config()
			if err != nil {
				logger.WithError(err).Error("failed to decode active config")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			response = configResponse{
				Version:   snapshot.Version,
				Status:    snapshot.Status,
				Config:    cfg,
				Insights:  snapshot.Insights,
				CreatedAt: snapshot.CreatedAt,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.WithError(err).Error("failed to encode config response")
		}
	}
}

type promotePayload struct {
	Version int `json:"version"`
}

// PromoteConfigHandler promotes a draft or reviewed snapshot to active. The
// caller must present the operator token as a bearer credential.
func PromoteConfigHandler(repo configPromoter, tokenHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tokenHash == "" {
			http.Error(w, "config promotion is disabled", http.StatusForbidden)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !security.VerifyOperatorToken(tokenHash, token) {
			logger.Warn("config promotion rejected: bad operator token")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var payload promotePayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid promote payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if payload.Version <= 0 {
			http.Error(w, "version is required", http.StatusBadRequest)
			return
		}

		if err := repo.Promote(r.Context(), payload.Version); err != nil {
			if errors.Is(err, repository.ErrNoDraft) {
				http.Error(w, "no promotable snapshot for version", http.StatusNotFound)
				return
			}
			logger.WithError(err).Error("failed to promote config")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.WithField("version", payload.Version).Info("Config snapshot promoted")

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "promoted",
			"version": payload.Version,
		}); err != nil {
			logger.WithError(err).Error("failed to encode promote response")
		}
	}
}
