package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"code.cloudfoundry.org/clock"
	"code.cloudfoundry.org/lager"
	"code.cloudfoundry.org/workpool"
	"github.com/tedsuo/ifrit"

	"github.com/openprocurement/auction-worker/auctionrunner"
	"github.com/openprocurement/auction-worker/auctiontypes"
	"github.com/openprocurement/auction-worker/communication/http/tenderclient"
	"github.com/openprocurement/auction-worker/config"
	"github.com/openprocurement/auction-worker/discovery"
	"github.com/openprocurement/auction-worker/scoring"
)

const (
	phasePlanning = "planning"
	phaseAnnounce = "announce"
)

var (
	configPath = flag.String("config", "auction_worker_defaults.yaml", "path to the worker defaults file")
	tenderID   = flag.String("tender-id", "", "tender identifier")
	lotID      = flag.String("lot-id", "", "lot identifier")
	auctionID  = flag.String("auction-id", "", "auction document id (defaults to <tender-id>_<lot-id>)")
	phase      = flag.String("phase", phasePlanning, "worker phase: planning | announce")
)

func main() {
	flag.Parse()

	logger := lager.NewLogger("auction-worker")
	logger.RegisterSink(lager.NewWriterSink(os.Stdout, lager.INFO))

	if *tenderID == "" || *lotID == "" {
		logger.Fatal("missing-identifiers", errors.New("tender-id and lot-id are required"))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed-to-load-config", err)
	}

	docID := *auctionID
	if docID == "" {
		docID = fmt.Sprintf("%s_%s", *tenderID, *lotID)
	}

	client := tenderclient.New(nil, tenderclient.Config{
		APIURL:     cfg.TendersAPIURL,
		TenderID:   *tenderID,
		Token:      cfg.TendersAPIToken,
		RetryCount: cfg.RetryCount,
	}, clock.NewClock(), logger)

	workPool, err := workpool.NewWorkPool(4)
	if err != nil {
		logger.Fatal("failed-to-create-workpool", err)
	}
	defer workPool.Stop()

	builder := auctionrunner.NewContextBuilder(scoring.WeightedCalculator{}, workPool, logger)
	runner := auctionrunner.New(auctionrunner.Config{
		AuctionID:          docID,
		LotID:              *lotID,
		APIVersion:         cfg.TendersAPIVersion,
		AuctionURLTemplate: cfg.AuctionsURL,
		HashSecret:         cfg.HashSecret,
	}, client, builder, auctionrunner.NewMemoryStore(), logger)

	process := ifrit.Invoke(phaseRunner(logger, runner, cfg, docID, *phase))

	if err := <-process.Wait(); err != nil {
		logger.Error("exited-with-failure", err)
		if errors.Is(err, auctiontypes.ErrAuctionCancelled) || errors.Is(err, auctiontypes.ErrLotNotFound) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func phaseRunner(logger lager.Logger, runner *auctionrunner.Runner, cfg config.Config, docID, phase string) ifrit.Runner {
	return ifrit.RunFunc(func(signals <-chan os.Signal, ready chan<- struct{}) error {
		close(ready)

		done := make(chan error, 1)
		go func() {
			done <- runPhase(logger, runner, cfg, docID, phase)
		}()

		select {
		case err := <-done:
			return err
		case sig := <-signals:
			logger.Info("signalled", lager.Data{"signal": sig.String()})
			return nil
		}
	})
}

func runPhase(logger lager.Logger, runner *auctionrunner.Runner, cfg config.Config, docID, phase string) error {
	switch phase {
	case phasePlanning:
		if err := runner.GetAuctionInfo(true); err != nil {
			return err
		}
		if _, err := runner.PrepareAuctionDocument(); err != nil {
			return err
		}
		if err := runner.PrepareAuctionAndParticipationURLs(); err != nil {
			return err
		}
		if cfg.RedisURL == "" {
			return nil
		}
		registry, err := discovery.New(cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer registry.Close()
		return registry.Register(context.Background(), docID, runner.AuctionURL())

	case phaseAnnounce:
		if err := runner.GetAuctionInfo(false); err != nil {
			return err
		}
		if _, err := runner.LoadDocument(); err != nil {
			return err
		}
		readback, err := runner.PostResultsData()
		if err != nil {
			return err
		}
		if err := runner.AnnounceResultsData(readback); err != nil {
			return err
		}
		if cfg.RedisURL == "" {
			return nil
		}
		registry, err := discovery.New(cfg.RedisURL, logger)
		if err != nil {
			return err
		}
		defer registry.Close()
		return registry.Unregister(context.Background(), docID)

	default:
		return fmt.Errorf("unknown phase %q", phase)
	}
}
