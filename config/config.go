// Package config loads the worker defaults shared by every lot run.
package config

import "github.com/spf13/viper"

type Config struct {
	TendersAPIURL     string `mapstructure:"TENDERS_API_URL"`
	TendersAPIVersion string `mapstructure:"TENDERS_API_VERSION"`
	TendersAPIToken   string `mapstructure:"TENDERS_API_TOKEN"`
	AuctionsURL       string `mapstructure:"AUCTIONS_URL"`
	HashSecret        string `mapstructure:"HASH_SECRET"`
	RedisURL          string `mapstructure:"REDIS_URL"`
	RetryCount        int    `mapstructure:"RETRY_COUNT"`
}

// Load reads the worker defaults file (yaml). RETRY_COUNT defaults to the
// client's ten-attempt budget.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("RETRY_COUNT", 10)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
