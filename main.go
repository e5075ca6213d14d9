package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"newsquant/src/database"
	"newsquant/src/executors"
	"newsquant/src/handler"
	"newsquant/src/repository"
	"newsquant/src/server"
)

var (
	PORT     = os.Getenv("SERVER_PORT")
	APP_NAME = os.Getenv("APP_NAME")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	latest := &handler.LatestBatch{}
	hub := handler.NewProgressHub()

	// The pipeline loop feeds the API's live state.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := executors.StartLoop(ctx, executors.Hooks{
			Progress:  hub.Broadcast,
			BatchDone: latest.Set,
		}); err != nil {
			logger.WithError(err).Error("Pipeline loop exited with error")
		}
	}()

	server.StartServer(PORT, server.Deps{
		Latest:      latest,
		Progress:    hub,
		Predictions: repository.NewPredictionRepository(),
		Performance: repository.NewPerformanceRepository(),
		Configs:     repository.NewConfigRepository(),
	})
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
