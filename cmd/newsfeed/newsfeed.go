package newsfeed

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"newsquant/src/connectors"
	"newsquant/src/controller"
	"newsquant/src/database"
	"newsquant/src/repository"
)

// NewsFeed ingests recent articles for the configured universe into the
// news store, one ticker at a time.
type NewsFeed struct{}

func (t *NewsFeed) Start() error {
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	connConfig := connectors.GetConfig()
	if connConfig.NewsBaseURL == "" {
		return errors.New("NEWS_BASE_URL not set")
	}

	ctrlConfig := controller.GetConfig()
	client := connectors.NewNewsClient(
		connConfig.NewsBaseURL, connConfig.RequestTimeout, connConfig.RetryAttempts)
	repo := repository.NewNewsRepository()

	ctx := context.Background()

	var total int64
	for _, ticker := range ctrlConfig.Universe {
		articles, err := client.GetArticles(ctx, ticker, ctrlConfig.NewsLookback)
		if err != nil {
			logrus.WithField("ticker", ticker).WithError(err).Warn("Failed to fetch articles")
			continue
		}
		if len(articles) == 0 {
			continue
		}

		inserted, err := repo.UpsertArticles(ctx, articles)
		if err != nil {
			return err
		}
		total += inserted
	}

	logrus.WithFields(logrus.Fields{
		"tickers":  len(ctrlConfig.Universe),
		"inserted": total,
	}).Info("News ingestion finished")

	return nil
}
