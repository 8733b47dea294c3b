package auctionrunner_test

import (
	"github.com/openprocurement/auction-worker/auctionrunner"
	"github.com/openprocurement/auction-worker/auctiontypes"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("MemoryStore", func() {
	var store *auctionrunner.MemoryStore

	BeforeEach(func() {
		store = auctionrunner.NewMemoryStore()
	})

	It("returns nil for an unknown document", func() {
		doc, err := store.Get("nope")

		Ω(err).ShouldNot(HaveOccurred())
		Ω(doc).Should(BeNil())
	})

	It("round-trips documents as copies, never aliases", func() {
		saved := &auctiontypes.AuctionDocument{
			ID:           "auction-1",
			TenderID:     "UA-2014-11-11-000001",
			CurrentStage: -1,
			Stages:       []auctiontypes.Stage{{Type: auctiontypes.StagePause}},
		}
		Ω(store.Save(saved)).Should(Succeed())

		loaded, err := store.Get("auction-1")
		Ω(err).ShouldNot(HaveOccurred())
		Ω(loaded.TenderID).Should(Equal("UA-2014-11-11-000001"))

		loaded.CurrentStage = 7
		again, err := store.Get("auction-1")
		Ω(err).ShouldNot(HaveOccurred())
		Ω(again.CurrentStage).Should(Equal(-1))
	})

	It("overwrites on save by document id", func() {
		Ω(store.Save(&auctiontypes.AuctionDocument{ID: "auction-1", CurrentStage: -1})).Should(Succeed())
		Ω(store.Save(&auctiontypes.AuctionDocument{ID: "auction-1", CurrentStage: 4})).Should(Succeed())

		doc, err := store.Get("auction-1")
		Ω(err).ShouldNot(HaveOccurred())
		Ω(doc.CurrentStage).Should(Equal(4))
	})
})
