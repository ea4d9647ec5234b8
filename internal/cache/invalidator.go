package cache

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Keys the public site caches the offer listing under. The sync pipeline
// deletes them after a successful run so the next page render refetches.
var offerListingKeys = []string{
	"offers:listing",
	"offers:listing:featured",
	"offers:listing:by_country",
}

// Invalidator drops the cached offer-listing views from Redis.
type Invalidator struct {
	rdb *redis.Client
}

func NewInvalidator(addr, password string, db int) *Invalidator {
	return &Invalidator{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (i *Invalidator) InvalidateOffers(ctx context.Context) error {
	if err := i.rdb.Del(ctx, offerListingKeys...).Err(); err != nil {
		return fmt.Errorf("cache: delete offer listing keys: %w", err)
	}
	return nil
}

func (i *Invalidator) Close() error { return i.rdb.Close() }
