package scoring_test

import (
	"github.com/openprocurement/auction-worker/auctiontypes"
	"github.com/openprocurement/auction-worker/scoring"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("WeightedCalculator", func() {
	var calculator scoring.WeightedCalculator
	var features []auctiontypes.Feature

	BeforeEach(func() {
		calculator = scoring.WeightedCalculator{}
		features = []auctiontypes.Feature{
			{
				Code: "delivery",
				Enum: []auctiontypes.FeatureValue{{Value: 0}, {Value: 0.05}},
			},
			{
				Code: "warranty",
				Enum: []auctiontypes.FeatureValue{{Value: 0}, {Value: 0.01}},
			},
		}
	})

	It("sums the submitted parameter values on top of one", func() {
		coefficient, err := calculator.Coefficient(features, []auctiontypes.Parameter{
			{Code: "delivery", Value: 0.05},
			{Code: "warranty", Value: 0.01},
		})

		Ω(err).ShouldNot(HaveOccurred())
		Ω(coefficient.String()).Should(Equal("1.06"))
	})

	It("scores exactly one for all-zero answers", func() {
		coefficient, err := calculator.Coefficient(features, []auctiontypes.Parameter{
			{Code: "delivery", Value: 0},
			{Code: "warranty", Value: 0},
		})

		Ω(err).ShouldNot(HaveOccurred())
		Ω(coefficient.String()).Should(Equal("1"))
	})

	It("rejects a missing parameter", func() {
		_, err := calculator.Coefficient(features, []auctiontypes.Parameter{
			{Code: "delivery", Value: 0.05},
		})

		Ω(err).Should(HaveOccurred())
		Ω(err.Error()).Should(ContainSubstring("warranty"))
	})

	It("rejects a value outside the feature's enum", func() {
		_, err := calculator.Coefficient(features, []auctiontypes.Parameter{
			{Code: "delivery", Value: 0.07},
			{Code: "warranty", Value: 0.01},
		})

		Ω(err).Should(HaveOccurred())
		Ω(err.Error()).Should(ContainSubstring("delivery"))
	})
})
