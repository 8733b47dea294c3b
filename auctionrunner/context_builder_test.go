package auctionrunner_test

import (
	"encoding/json"
	"errors"
	"time"

	"code.cloudfoundry.org/lager/lagertest"

	"github.com/openprocurement/auction-worker/auctionrunner"
	"github.com/openprocurement/auction-worker/auctiontypes"
	"github.com/openprocurement/auction-worker/scoring"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

const twoLotTender = `{
	"data": {
		"tenderID": "UA-2014-11-11-000001",
		"title": "Комп'ютерне обладнання",
		"title_en": "Computer hardware",
		"title_ru": "Компьютерное оборудование",
		"description": "Опис",
		"description_en": "Description",
		"procuringEntity": {"name": "Міська рада"},
		"lots": [
			{
				"id": "lot-1",
				"title": "Перший лот",
				"title_en": "First lot",
				"value": {"amount": 500000, "currency": "UAH"},
				"minimalStep": {"amount": 5000, "currency": "UAH"},
				"auctionPeriod": {"startDate": "2014-11-19T12:00:00Z"}
			},
			{
				"id": "lot-2",
				"title": "Другий лот",
				"auctionPeriod": {"startDate": "2014-11-20T12:00:00Z"}
			}
		],
		"items": [
			{"id": "item-1", "relatedLot": "lot-1"},
			{"id": "item-2", "relatedLot": "lot-2"},
			{"id": "item-3", "relatedLot": "lot-1"}
		],
		"features": [
			{
				"code": "delivery",
				"relatedLot": "lot-2",
				"enum": [{"value": 0}, {"value": 0.05}]
			}
		],
		"bids": [
			{
				"id": "bid-1",
				"lotValues": [
					{"relatedLot": "lot-1", "value": {"amount": 480000}, "date": "2014-11-15T10:00:00Z"},
					{"relatedLot": "lot-2", "value": {"amount": 100}, "date": "2014-11-15T10:00:00Z", "parameters": [{"code": "delivery", "value": 0.05}]}
				]
			},
			{
				"id": "bid-2",
				"lotValues": [
					{"relatedLot": "lot-1", "value": {"amount": 475000}, "date": "2014-11-16T10:00:00Z"}
				]
			},
			{
				"id": "bid-3",
				"lotValues": [
					{"relatedLot": "lot-2", "value": {"amount": 90}, "date": "2014-11-16T10:00:00Z", "parameters": [{"code": "delivery", "value": 0}]}
				]
			}
		]
	}
}`

var _ = Describe("ContextBuilder", func() {
	var builder *auctionrunner.ContextBuilder
	var snapshot *auctiontypes.TenderSnapshot

	BeforeEach(func() {
		builder = auctionrunner.NewContextBuilder(scoring.WeightedCalculator{}, nil, lagertest.NewTestLogger("builder"))

		var err error
		snapshot, err = auctiontypes.NewTenderSnapshot([]byte(twoLotTender))
		Ω(err).ShouldNot(HaveOccurred())
	})

	Describe("building a price-only lot", func() {
		var ctx *auctiontypes.LotContext

		BeforeEach(func() {
			var err error
			ctx, err = builder.Build(snapshot, "lot-1", false)
			Ω(err).ShouldNot(HaveOccurred())
		})

		It("selects the lot and keeps only its items, in source order", func() {
			Ω(ctx.Lot.ID).Should(Equal("lot-1"))
			Ω(ctx.Items).Should(HaveLen(2))
			Ω(ctx.Items[0].ID).Should(Equal("item-1"))
			Ω(ctx.Items[1].ID).Should(Equal("item-3"))
		})

		It("never includes the sibling lot's data", func() {
			Ω(ctx.Features).Should(BeEmpty())
			for _, bid := range ctx.Bids {
				Ω(bid.ID).ShouldNot(Equal("bid-3"))
			}
		})

		It("parses the scheduled auction start", func() {
			Ω(ctx.StartDate).Should(Equal(time.Date(2014, 11, 19, 12, 0, 0, 0, time.UTC)))
		})

		It("projects one compact record per participating bid", func() {
			Ω(ctx.Bids).Should(HaveLen(2))
			Ω(ctx.BiddersCount).Should(Equal(2))
			Ω(ctx.Bids[0].ID).Should(Equal("bid-1"))
			Ω(ctx.Bids[0].Value.Amount).Should(Equal(480000.0))
			Ω(ctx.Bids[1].ID).Should(Equal("bid-2"))
		})

		It("assigns display ranks in recorded order, not by amount", func() {
			Ω(ctx.Mapping).Should(Equal(map[string]string{
				"bid-1": "1",
				"bid-2": "2",
			}))
		})

		It("marks the auction as price-only", func() {
			Ω(ctx.Qualitative()).Should(BeFalse())
			Ω(ctx.AuctionType()).Should(Equal("default"))
			Ω(ctx.BidderCoefficients).Should(BeEmpty())
		})

		It("captures the dynamic multilingual keys", func() {
			Ω(ctx.Multilingual["title_en"]).Should(Equal("Computer hardware"))
			Ω(ctx.Multilingual["title_ru"]).Should(Equal("Компьютерное оборудование"))
			Ω(ctx.Multilingual["description_en"]).Should(Equal("Description"))
			Ω(ctx.LotMultilingual["title_en"]).Should(Equal("First lot"))
		})
	})

	Describe("building a qualitative lot", func() {
		var ctx *auctiontypes.LotContext

		BeforeEach(func() {
			var err error
			ctx, err = builder.Build(snapshot, "lot-2", false)
			Ω(err).ShouldNot(HaveOccurred())
		})

		It("marks the auction as weighted and scores every bidder", func() {
			Ω(ctx.Qualitative()).Should(BeTrue())
			Ω(ctx.AuctionType()).Should(Equal("meat"))

			Ω(ctx.BidderCoefficients).Should(HaveLen(2))
			Ω(ctx.BidderCoefficients["bid-1"].String()).Should(Equal("1.05"))
			Ω(ctx.BidderCoefficients["bid-3"].String()).Should(Equal("1"))
		})

		It("keeps the submitted parameters per bidder", func() {
			Ω(ctx.BidderParameters["bid-1"]).Should(Equal([]auctiontypes.Parameter{{Code: "delivery", Value: 0.05}}))
		})
	})

	Describe("prepare mode", func() {
		It("skips bid projection entirely", func() {
			ctx, err := builder.Build(snapshot, "lot-1", true)

			Ω(err).ShouldNot(HaveOccurred())
			Ω(ctx.Bids).Should(BeEmpty())
			Ω(ctx.BiddersCount).Should(Equal(0))
			Ω(ctx.StartDate.IsZero()).Should(BeFalse())
		})
	})

	Context("when the lot is absent", func() {
		It("fails with a fatal lot-not-found error", func() {
			_, err := builder.Build(snapshot, "lot-9", false)

			Ω(err).Should(HaveOccurred())
			Ω(errors.Is(err, auctiontypes.ErrLotNotFound)).Should(BeTrue())
		})
	})

	It("is a pure function of the snapshot", func() {
		before, err := json.Marshal(snapshot.Tender)
		Ω(err).ShouldNot(HaveOccurred())

		first, err := builder.Build(snapshot, "lot-1", false)
		Ω(err).ShouldNot(HaveOccurred())
		second, err := builder.Build(snapshot, "lot-1", false)
		Ω(err).ShouldNot(HaveOccurred())

		Ω(first).Should(Equal(second))

		after, err := json.Marshal(snapshot.Tender)
		Ω(err).ShouldNot(HaveOccurred())
		Ω(after).Should(Equal(before))
	})
})
