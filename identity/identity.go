// Package identity derives per-bidder participation credentials. The token
// is a capability, not a signature: anyone holding the shared secret can
// mint tokens for arbitrary bidder identifiers.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"net/url"
)

// Hash digests secret then bidder identifier, in that order. The order is
// part of the wire contract; changing it invalidates every issued
// participation URL.
func Hash(bidderID, secret string) string {
	digest := sha1.New()
	io.WriteString(digest, secret)
	io.WriteString(digest, bidderID)
	return hex.EncodeToString(digest.Sum(nil))
}

// ParticipationURL builds the login URL granting one bidder access to its
// bidding session on the given auction.
func ParticipationURL(auctionURL, bidderID, secret string) string {
	query := url.Values{}
	query.Set("bidder_id", bidderID)
	query.Set("hash", Hash(bidderID, secret))
	return auctionURL + "/login?" + query.Encode()
}
