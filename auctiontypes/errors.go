package auctiontypes

import "errors"

var ErrLotNotFound = errors.New("lot not found in tender")
var ErrBidderNotFound = errors.New("no bids recorded for bidder")
var ErrAuctionCancelled = errors.New("auction cancelled upstream")
var ErrRetryExhausted = errors.New("retry budget exhausted")
