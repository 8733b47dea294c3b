package identity_test

import (
	"github.com/openprocurement/auction-worker/identity"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Identity", func() {
	Describe("Hash", func() {
		// Known-answer vector pinning the secret-then-id digest order.
		// Changing the order invalidates every issued participation URL.
		It("matches the pinned digest vector", func() {
			Ω(identity.Hash("1234", "5678")).Should(Equal("85512f17e19d85600a7e92175fc16d0c3d900661"))
		})

		It("is deterministic across repeated calls", func() {
			first := identity.Hash("bidder-1", "secret")
			for i := 0; i < 10; i++ {
				Ω(identity.Hash("bidder-1", "secret")).Should(Equal(first))
			}
		})

		It("changes with either input", func() {
			token := identity.Hash("bidder-1", "secret")
			Ω(identity.Hash("bidder-2", "secret")).ShouldNot(Equal(token))
			Ω(identity.Hash("bidder-1", "terces")).ShouldNot(Equal(token))
		})
	})

	Describe("ParticipationURL", func() {
		It("embeds the bidder id and its token in the login URL", func() {
			url := identity.ParticipationURL("https://auctions.example.com/tender_lot", "1234", "5678")

			Ω(url).Should(Equal("https://auctions.example.com/tender_lot/login?bidder_id=1234&hash=85512f17e19d85600a7e92175fc16d0c3d900661"))
		})

		It("escapes bidder identifiers", func() {
			url := identity.ParticipationURL("https://auctions.example.com/a", "b&c", "5678")

			Ω(url).Should(ContainSubstring("bidder_id=b%26c"))
		})
	})
})
