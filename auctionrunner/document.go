package auctionrunner

import (
	"time"

	"github.com/openprocurement/auction-worker/auctiontypes"
	"github.com/openprocurement/auction-worker/ranking"
)

// CancelledStage marks a document whose auction was cancelled upstream
// before the run could proceed.
const CancelledStage = -100

func serviceStage(start time.Time) auctiontypes.Stage {
	return auctiontypes.Stage{
		Type:  auctiontypes.StagePause,
		Start: start.Format(time.RFC3339),
	}
}

func newAuctionDocument(auctionID, apiVersion string, ctx *auctiontypes.LotContext) *auctiontypes.AuctionDocument {
	return &auctiontypes.AuctionDocument{
		ID:              auctionID,
		TenderID:        ctx.TenderID,
		APIVersion:      apiVersion,
		CurrentStage:    -1,
		Stages:          []auctiontypes.Stage{serviceStage(ctx.StartDate)},
		InitialBids:     []auctiontypes.Stage{},
		Results:         []auctiontypes.Stage{},
		AuctionType:     ctx.AuctionType(),
		Value:           ctx.Lot.Value,
		MinimalStep:     ctx.Lot.MinimalStep,
		Items:           ctx.Items,
		ProcuringEntity: ctx.ProcuringEntity,
		Title:           ctx.Title,
		TitleRu:         ctx.Multilingual["title_ru"],
		TitleEn:         ctx.Multilingual["title_en"],
		Description:     ctx.Description,
		DescriptionRu:   ctx.Multilingual["description_ru"],
		DescriptionEn:   ctx.Multilingual["description_en"],
		Lot: auctiontypes.AuctionLot{
			Title:         ctx.Lot.Title,
			TitleRu:       ctx.LotMultilingual["title_ru"],
			TitleEn:       ctx.LotMultilingual["title_en"],
			Description:   ctx.Lot.Description,
			DescriptionRu: ctx.LotMultilingual["description_ru"],
			DescriptionEn: ctx.LotMultilingual["description_en"],
		},
	}
}

// recordsToBids converts document result records into ranking inputs. A
// record without a parseable timestamp keeps the zero time, the epoch
// floor untimed records lose ties at.
func recordsToBids(records []auctiontypes.Stage) []ranking.Bid {
	bids := make([]ranking.Bid, 0, len(records))
	for _, record := range records {
		bid := ranking.Bid{BidderID: record.BidderID, Amount: record.Amount}
		if record.Time != "" {
			if date, err := time.Parse(time.RFC3339, record.Time); err == nil {
				bid.Time = date
			}
		}
		bids = append(bids, bid)
	}
	return bids
}

func cloneLots(lots []auctiontypes.Lot) []auctiontypes.Lot {
	return append([]auctiontypes.Lot(nil), lots...)
}

// cloneBids copies the bid list deeply enough that lot values and their
// monetary values can be rewritten without touching the cached snapshot.
func cloneBids(bids []auctiontypes.Bid) []auctiontypes.Bid {
	copied := append([]auctiontypes.Bid(nil), bids...)
	for i := range copied {
		lotValues := append([]auctiontypes.LotValue(nil), copied[i].LotValues...)
		for j := range lotValues {
			if lotValues[j].Value != nil {
				value := *lotValues[j].Value
				lotValues[j].Value = &value
			}
		}
		copied[i].LotValues = lotValues
	}
	return copied
}
