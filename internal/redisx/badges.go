package redisx

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-merchant-console/internal/orders"
)

// BadgeCache mirrors the navigation badge counts into Redis so other
// processes can read them without holding the order session.
type BadgeCache struct {
	Redis      redis.Cmdable
	MerchantID string
	Log        *zap.Logger
}

func (b *BadgeCache) key() string { return fmt.Sprintf(KeyBadges, b.MerchantID) }

func (b *BadgeCache) Set(ctx context.Context, v orders.Badges) error {
	if err := b.Redis.HSet(ctx, b.key(), "new_orders", v.NewOrders, "unread_messages", v.UnreadMessages).Err(); err != nil {
		return err
	}
	return b.Redis.Expire(ctx, b.key(), TTLBadges).Err()
}

func (b *BadgeCache) Get(ctx context.Context) (orders.Badges, error) {
	m, err := b.Redis.HGetAll(ctx, b.key()).Result()
	if err != nil {
		return orders.Badges{}, err
	}
	var v orders.Badges
	v.NewOrders, _ = strconv.Atoi(m["new_orders"])
	v.UnreadMessages, _ = strconv.Atoi(m["unread_messages"])
	return v, nil
}

// Watch keeps the cache in step with the store. It returns the unsubscribe func.
func (b *BadgeCache) Watch(ctx context.Context, s *orders.Store) func() {
	return s.Subscribe(func(list []orders.Order) {
		if err := b.Set(ctx, orders.CountBadges(list)); err != nil && b.Log != nil {
			b.Log.Warn("badge cache update failed", zap.Error(err))
		}
	})
}
