// Package ranking orders recorded bids by effective value. It is pure:
// no I/O, inputs are never mutated.
package ranking

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openprocurement/auction-worker/auctiontypes"
)

// Bid is one recorded submission. A zero Time means the record carried no
// timestamp; it sorts below every timed record.
type Bid struct {
	BidderID string
	Amount   float64
	Time     time.Time
}

// Combine folds a bidder's coefficient into a bid amount, yielding the
// effective score qualitative auctions rank by. The weighting law is
// deployment policy, so it is injected rather than fixed here.
type Combine func(amount, coefficient decimal.Decimal) decimal.Decimal

// DivideByCoefficient is the standard reverse-auction law: the amount is
// discounted by the bidder's criteria coefficient.
func DivideByCoefficient(amount, coefficient decimal.Decimal) decimal.Decimal {
	if coefficient.IsZero() {
		return amount
	}
	return amount.DivRound(coefficient, 10)
}

// Rank orders bids by amount descending. Equal amounts are ordered by
// submission time descending: the later bid wins the tie. Equal amount and
// equal time retain input order (stable).
func Rank(bids []Bid) []Bid {
	ranked := append([]Bid(nil), bids...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Amount != ranked[j].Amount {
			return ranked[i].Amount > ranked[j].Amount
		}
		return ranked[i].Time.After(ranked[j].Time)
	})
	return ranked
}

// RankQualitative orders bids by effective score descending, applying each
// bidder's coefficient through combine (DivideByCoefficient when nil).
// Bidders without a coefficient score with coefficient 1. Tie-break
// discipline matches Rank: later time wins, then input order.
func RankQualitative(bids []Bid, coefficients map[string]decimal.Decimal, combine Combine) []Bid {
	if combine == nil {
		combine = DivideByCoefficient
	}

	one := decimal.NewFromInt(1)
	scores := make([]decimal.Decimal, len(bids))
	for i, bid := range bids {
		coefficient, ok := coefficients[bid.BidderID]
		if !ok {
			coefficient = one
		}
		scores[i] = combine(decimal.NewFromFloat(bid.Amount), coefficient)
	}

	order := make([]int, len(bids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		cmp := scores[order[i]].Cmp(scores[order[j]])
		if cmp != 0 {
			return cmp > 0
		}
		return bids[order[i]].Time.After(bids[order[j]].Time)
	})

	ranked := make([]Bid, len(bids))
	for i, idx := range order {
		ranked[i] = bids[idx]
	}
	return ranked
}

// FilterByBidder returns the bids belonging to one bidder, input order
// preserved.
func FilterByBidder(bids []Bid, bidderID string) []Bid {
	var filtered []Bid
	for _, bid := range bids {
		if bid.BidderID == bidderID {
			filtered = append(filtered, bid)
		}
	}
	return filtered
}

// Latest returns the bidder's most recent bid. Among equal timestamps the
// earliest-recorded bid wins. Callers must pass a bidder known to be
// present; a missing bidder is a data-integrity fault surfaced as
// ErrBidderNotFound.
func Latest(bids []Bid, bidderID string) (Bid, error) {
	var latest Bid
	found := false
	for _, bid := range FilterByBidder(bids, bidderID) {
		if !found || bid.Time.After(latest.Time) {
			latest = bid
			found = true
		}
	}
	if !found {
		return Bid{}, fmt.Errorf("bidder %q: %w", bidderID, auctiontypes.ErrBidderNotFound)
	}
	return latest, nil
}

// SortByAmount orders bids by amount, descending unless ascending is set.
// Stable, so equal amounts keep input order.
func SortByAmount(bids []Bid, ascending bool) []Bid {
	sorted := append([]Bid(nil), bids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if ascending {
			return sorted[i].Amount < sorted[j].Amount
		}
		return sorted[i].Amount > sorted[j].Amount
	})
	return sorted
}

// SortByTime orders bids by submission time, most recent first.
func SortByTime(bids []Bid) []Bid {
	sorted := append([]Bid(nil), bids...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.After(sorted[j].Time)
	})
	return sorted
}
