// Package scoring computes per-bidder coefficients for qualitative
// ("meat") auctions from lot features and submitted parameters.
package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openprocurement/auction-worker/auctiontypes"
)

// Calculator scores one bidder's parameters against the lot's features.
// Implementations must be pure; the builder may call them concurrently.
type Calculator interface {
	Coefficient(features []auctiontypes.Feature, parameters []auctiontypes.Parameter) (decimal.Decimal, error)
}

// WeightedCalculator is the standard law: 1 plus the sum of the submitted
// parameter values, each validated against its feature's enum.
type WeightedCalculator struct{}

func (WeightedCalculator) Coefficient(features []auctiontypes.Feature, parameters []auctiontypes.Parameter) (decimal.Decimal, error) {
	coefficient := decimal.NewFromInt(1)
	for _, feature := range features {
		parameter, ok := findParameter(parameters, feature.Code)
		if !ok {
			return decimal.Decimal{}, fmt.Errorf("no parameter submitted for feature %q", feature.Code)
		}
		if len(feature.Enum) > 0 && !enumAllows(feature.Enum, parameter.Value) {
			return decimal.Decimal{}, fmt.Errorf("parameter value %v not allowed for feature %q", parameter.Value, feature.Code)
		}
		coefficient = coefficient.Add(decimal.NewFromFloat(parameter.Value))
	}
	return coefficient, nil
}

func findParameter(parameters []auctiontypes.Parameter, code string) (auctiontypes.Parameter, bool) {
	for _, parameter := range parameters {
		if parameter.Code == code {
			return parameter, true
		}
	}
	return auctiontypes.Parameter{}, false
}

func enumAllows(enum []auctiontypes.FeatureValue, value float64) bool {
	for _, allowed := range enum {
		if allowed.Value == value {
			return true
		}
	}
	return false
}
