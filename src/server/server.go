package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"newsquant/src/handler"
	"newsquant/src/repository"
	"newsquant/src/security"
)

// Deps are the shared pieces the API serves: the live scan state fed by the
// pipeline loop, and the repositories behind the read endpoints.
type Deps struct {
	Latest      *handler.LatestBatch
	Progress    *handler.ProgressHub
	Predictions *repository.PredictionRepository
	Performance *repository.PerformanceRepository
	Configs     *repository.ConfigRepository
}

// NewRouter builds the API routes. Split from StartServer for tests.
func NewRouter(deps Deps) *chi.Mux {
	securityConfig := security.GetConfig()

	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/rankings", handler.RankingsHandler(deps.Latest))
		r.Get("/predictions", handler.PredictionsHandler(deps.Predictions))
		r.Get("/performance", handler.PerformanceHandler(deps.Performance))
		r.Get("/config/active", handler.ActiveConfigHandler(deps.Configs))
		r.Post("/config/promote", handler.PromoteConfigHandler(deps.Configs, securityConfig.OperatorTokenHash))
	})

	r.Get("/ws/progress", deps.Progress.Handler())

	return r
}

func StartServer(port string, deps Deps) {
	if port == "" {
		port = GetConfig().Port
	}

	r := NewRouter(deps)

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
