package config_test

import (
	"os"
	"path/filepath"

	"github.com/openprocurement/auction-worker/config"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "auction-worker-config")
		Ω(err).ShouldNot(HaveOccurred())
	})

	AfterEach(func() {
		Ω(os.RemoveAll(dir)).Should(Succeed())
	})

	writeConfig := func(contents string) string {
		path := filepath.Join(dir, "auction_worker_defaults.yaml")
		Ω(os.WriteFile(path, []byte(contents), 0644)).Should(Succeed())
		return path
	}

	It("loads the worker defaults", func() {
		path := writeConfig(`
TENDERS_API_URL: https://api.example.com
TENDERS_API_VERSION: "2.5"
TENDERS_API_TOKEN: api-token
AUCTIONS_URL: http://auctions.example.com/auctions/{auction_id}
HASH_SECRET: secret
REDIS_URL: redis://localhost:6379/0
RETRY_COUNT: 5
`)

		cfg, err := config.Load(path)

		Ω(err).ShouldNot(HaveOccurred())
		Ω(cfg.TendersAPIURL).Should(Equal("https://api.example.com"))
		Ω(cfg.TendersAPIVersion).Should(Equal("2.5"))
		Ω(cfg.TendersAPIToken).Should(Equal("api-token"))
		Ω(cfg.AuctionsURL).Should(Equal("http://auctions.example.com/auctions/{auction_id}"))
		Ω(cfg.HashSecret).Should(Equal("secret"))
		Ω(cfg.RedisURL).Should(Equal("redis://localhost:6379/0"))
		Ω(cfg.RetryCount).Should(Equal(5))
	})

	It("defaults the retry budget to ten attempts", func() {
		path := writeConfig(`
TENDERS_API_URL: https://api.example.com
`)

		cfg, err := config.Load(path)

		Ω(err).ShouldNot(HaveOccurred())
		Ω(cfg.RetryCount).Should(Equal(10))
	})

	It("fails on a missing file", func() {
		_, err := config.Load(filepath.Join(dir, "absent.yaml"))

		Ω(err).Should(HaveOccurred())
	})
})
