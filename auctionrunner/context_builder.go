package auctionrunner

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"code.cloudfoundry.org/lager"
	"code.cloudfoundry.org/workpool"
	"github.com/Jeffail/gabs/v2"
	"github.com/shopspring/decimal"

	"github.com/openprocurement/auction-worker/auctiontypes"
	"github.com/openprocurement/auction-worker/scoring"
)

var multilingualFields = []string{"title", "description"}
var additionalLanguages = []string{"ru", "en"}

// ContextBuilder turns one shared multi-lot tender snapshot into the
// self-contained single-lot context a run operates on. Building is pure
// with respect to the snapshot: the same snapshot and lot id always yield
// the same context.
type ContextBuilder struct {
	scorer   scoring.Calculator
	workPool *workpool.WorkPool
	logger   lager.Logger
}

func NewContextBuilder(scorer scoring.Calculator, workPool *workpool.WorkPool, logger lager.Logger) *ContextBuilder {
	return &ContextBuilder{
		scorer:   scorer,
		workPool: workPool,
		logger:   logger.Session("context-builder"),
	}
}

// Build extracts the lot's items, features, timing and bid projections.
// In prepare mode (before the full document is available) bid projection
// is skipped.
func (b *ContextBuilder) Build(snapshot *auctiontypes.TenderSnapshot, lotID string, prepare bool) (*auctiontypes.LotContext, error) {
	logger := b.logger.Session("build", lager.Data{"lot": lotID, "prepare": prepare})

	tender := snapshot.Tender
	var lot *auctiontypes.Lot
	for i := range tender.Lots {
		if tender.Lots[i].ID == lotID {
			lot = &tender.Lots[i]
			break
		}
	}
	if lot == nil {
		logger.Error("lot-missing", auctiontypes.ErrLotNotFound)
		return nil, fmt.Errorf("lot %q: %w", lotID, auctiontypes.ErrLotNotFound)
	}

	ctx := &auctiontypes.LotContext{
		TenderID:        tender.TenderID,
		Lot:             *lot,
		Title:           tender.Title,
		Description:     tender.Description,
		ProcuringEntity: tender.ProcuringEntity,
		Mapping:         map[string]string{},
	}

	for _, item := range tender.Items {
		if item.RelatedLot == lotID {
			ctx.Items = append(ctx.Items, item)
		}
	}
	for _, feature := range tender.Features {
		if feature.RelatedLot == lotID {
			ctx.Features = append(ctx.Features, feature)
		}
	}

	if lot.AuctionPeriod == nil || lot.AuctionPeriod.StartDate == "" {
		return nil, fmt.Errorf("lot %q carries no auction start date", lotID)
	}
	startDate, err := time.Parse(time.RFC3339, lot.AuctionPeriod.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parse auction start date: %w", err)
	}
	ctx.StartDate = startDate

	ctx.Multilingual, ctx.LotMultilingual = extractMultilingual(snapshot.Raw, lotID)

	if prepare {
		return ctx, nil
	}

	for _, bid := range tender.Bids {
		for _, lotValue := range bid.LotValues {
			if lotValue.RelatedLot != lotID {
				continue
			}
			info := auctiontypes.BidInfo{ID: bid.ID}
			if lotValue.Value != nil {
				value := *lotValue.Value
				info.Value = &value
			}
			if lotValue.Date != "" {
				if date, err := time.Parse(time.RFC3339, lotValue.Date); err == nil {
					info.Date = date
				}
			}
			if len(lotValue.Parameters) > 0 {
				info.Parameters = append([]auctiontypes.Parameter(nil), lotValue.Parameters...)
			}
			ctx.Bids = append(ctx.Bids, info)
			break
		}
	}
	ctx.BiddersCount = len(ctx.Bids)
	logger.Info("bidders-count", lager.Data{"count": ctx.BiddersCount})

	for index, bid := range ctx.Bids {
		ctx.Mapping[bid.ID] = strconv.Itoa(index + 1)
	}

	if ctx.Qualitative() {
		if err := b.scoreBidders(logger, ctx); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

// scoreBidders computes the qualitative coefficient table, fanning one
// scoring call per bidder out on the work pool.
func (b *ContextBuilder) scoreBidders(logger lager.Logger, ctx *auctiontypes.LotContext) error {
	scorer := b.scorer
	if scorer == nil {
		scorer = scoring.WeightedCalculator{}
	}

	coefficients := make(map[string]decimal.Decimal, len(ctx.Bids))
	parameters := make(map[string][]auctiontypes.Parameter, len(ctx.Bids))

	wg := &sync.WaitGroup{}
	lock := &sync.Mutex{}
	var firstErr error

	for _, bid := range ctx.Bids {
		bid := bid
		wg.Add(1)
		score := func() {
			defer wg.Done()
			coefficient, err := scorer.Coefficient(ctx.Features, bid.Parameters)

			lock.Lock()
			defer lock.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("score bidder %q: %w", bid.ID, err)
				}
				return
			}
			coefficients[bid.ID] = coefficient
			parameters[bid.ID] = bid.Parameters
		}
		if b.workPool != nil {
			b.workPool.Submit(score)
		} else {
			score()
		}
	}
	wg.Wait()

	if firstErr != nil {
		logger.Error("failed-to-score-bidders", firstErr)
		return firstErr
	}

	ctx.BidderCoefficients = coefficients
	ctx.BidderParameters = parameters
	return nil
}

// extractMultilingual pulls the dynamic language-suffixed title and
// description keys out of the raw payload, tender-level and for the one
// lot the run owns.
func extractMultilingual(raw []byte, lotID string) (map[string]string, map[string]string) {
	tenderLevel := map[string]string{}
	lotLevel := map[string]string{}

	payload, err := gabs.ParseJSON(raw)
	if err != nil {
		return tenderLevel, lotLevel
	}
	data := payload.Search("data")
	if data == nil {
		return tenderLevel, lotLevel
	}

	collect := func(container *gabs.Container, into map[string]string) {
		for _, field := range multilingualFields {
			for _, lang := range additionalLanguages {
				key := field + "_" + lang
				if value, ok := container.Search(key).Data().(string); ok {
					into[key] = value
				}
			}
		}
	}

	collect(data, tenderLevel)

	if lots := data.Search("lots"); lots != nil {
		for _, lot := range lots.Children() {
			if id, ok := lot.Search("id").Data().(string); ok && id == lotID {
				collect(lot, lotLevel)
				break
			}
		}
	}

	return tenderLevel, lotLevel
}
