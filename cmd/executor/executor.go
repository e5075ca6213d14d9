package executor

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"newsquant/src/database"
	"newsquant/src/executors"
)

// Executor runs the scheduled scan/evaluate/learn loop until interrupted.
type Executor struct{}

func (t *Executor) Start() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	if err := executors.StartLoop(ctx, executors.Hooks{}); err != nil {
		logrus.WithError(err).Error("Failed to start pipeline loop")
		return err
	}

	return nil
}
