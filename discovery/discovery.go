// Package discovery maintains the auction-id to auction-URL mapping the
// front-end proxy resolves bidder traffic against.
package discovery

import (
	"context"

	"code.cloudfoundry.org/lager"
	"github.com/go-redis/redis/v9"
)

type Registry struct {
	client *redis.Client
	logger lager.Logger
}

func New(redisURL string, logger lager.Logger) (*Registry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Registry{
		client: redis.NewClient(opts),
		logger: logger.Session("discovery"),
	}, nil
}

func (r *Registry) Register(ctx context.Context, auctionID, auctionURL string) error {
	err := r.client.Set(ctx, auctionID, auctionURL, 0).Err()
	if err != nil {
		r.logger.Error("failed-to-register", err, lager.Data{"auction": auctionID})
		return err
	}
	r.logger.Info("registered", lager.Data{"auction": auctionID, "url": auctionURL})
	return nil
}

func (r *Registry) Unregister(ctx context.Context, auctionID string) error {
	err := r.client.Del(ctx, auctionID).Err()
	if err != nil {
		r.logger.Error("failed-to-unregister", err, lager.Data{"auction": auctionID})
		return err
	}
	r.logger.Info("unregistered", lager.Data{"auction": auctionID})
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}
