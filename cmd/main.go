package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"newsquant/cmd/executor"
	"newsquant/cmd/newsfeed"
	"newsquant/cmd/ohlcvcrypto"
	"newsquant/src/database"
	"newsquant/src/executors"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Newsquant CMD"
	app.Usage = "The newsquant command line interface"

	app.Commands = []cli.Command{
		loopCMD,
		scanCMD,
		evaluateCMD,
		learnCMD,
		newsFeedCMD,
		ohlcvCryptoCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	loopCMD = cli.Command{
		Name:        "loop",
		Usage:       "run the scheduled pipeline loop",
		Action:      loopAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the scan/evaluate/learn loop until interrupted`,
	}
	scanCMD = cli.Command{
		Name:        "scan",
		Usage:       "run one universe scan",
		Action:      scanAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Score and rank the configured universe once`,
	}
	evaluateCMD = cli.Command{
		Name:      "evaluate",
		Usage:     "evaluate active predictions",
		Action:    evaluateAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			cli.UintFlag{
				Name:  "prediction",
				Usage: "evaluate a single prediction by id",
			},
		},
		Description: `Record outcomes for predictions with enough price history`,
	}
	learnCMD = cli.Command{
		Name:        "learn",
		Usage:       "run one learning cycle",
		Action:      learnAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Derive a draft config snapshot from recent evidence`,
	}
	newsFeedCMD = cli.Command{
		Name:        "newsfeed",
		Usage:       "ingest recent news articles",
		Action:      newsFeedAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Fetch and store articles for the configured universe`,
	}
	ohlcvCryptoCMD = cli.Command{
		Name:        "ohlcv_crypto",
		Usage:       "run OHLCV crypto backfill",
		Action:      ohlcvCryptoAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Backfill exchange candles into the bar table`,
	}
)

func loopAction(_ *cli.Context) error {

	logrus.Info("Starting pipeline loop CMD")

	loop := &executor.Executor{}
	err := loop.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func scanAction(_ *cli.Context) error {

	logrus.Info("Starting scan CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	pipeline := executors.BuildPipeline(executors.Hooks{})
	batch, err := pipeline.ScanOnce(context.Background())
	if err != nil {
		logrus.WithError(err).Error("Scan failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"processed": batch.Processed,
		"picks":     batch.Picks,
		"skipped":   len(batch.Skipped),
		"failed":    len(batch.Failed),
	}).Info("Scan finished")

	return nil
}

func evaluateAction(c *cli.Context) error {

	logrus.Info("Starting evaluate CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	pipeline := executors.BuildPipeline(executors.Hooks{})
	ctx := context.Background()

	if id := c.Uint("prediction"); id > 0 {
		record, err := pipeline.Evaluator.RecordOutcome(ctx, uint(id))
		if err != nil {
			logrus.WithError(err).Error("Failed to record outcome")
			return err
		}
		logrus.WithFields(logrus.Fields{
			"ticker":     record.Ticker,
			"ret_1d":     record.Ret1d,
			"ret_5d":     record.Ret5d,
			"consistent": record.Consistent,
			"fake":       record.Fake,
		}).Info("Outcome recorded")
		return nil
	}

	result, err := pipeline.Evaluator.Run(ctx)
	if err != nil {
		logrus.WithError(err).Error("Evaluation failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"evaluated": result.Evaluated,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	}).Info("Evaluation finished")

	return nil
}

func learnAction(_ *cli.Context) error {

	logrus.Info("Starting learn CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	pipeline := executors.BuildPipeline(executors.Hooks{})
	result, err := pipeline.Learner.Run(context.Background())
	if err != nil {
		logrus.WithError(err).Error("Learning cycle failed")
		return err
	}

	logrus.WithFields(logrus.Fields{
		"version":   result.Version,
		"promoted":  result.Promoted,
		"discarded": result.Discarded,
		"insights":  len(result.Insights),
	}).Info("Learning cycle finished")

	return nil
}

func newsFeedAction(_ *cli.Context) error {

	logrus.Info("Starting newsfeed CMD")

	feed := &newsfeed.NewsFeed{}
	err := feed.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

// ohlcvCryptoAction will go get OHLCV candles for BTC/ETH
func ohlcvCryptoAction(_ *cli.Context) error {

	logrus.Info("Starting OHLCV crypto CMD")
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	_ohlcv := &ohlcvcrypto.OHLCVCrypto{
		Log: logrus.WithField("cmd", "ohlcv_crypto"),
		DB:  database.MainDB,
	}

	err := _ohlcv.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting OHLCV cmd")
		return err
	}

	return nil
}
