package alerts

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-merchant-console/internal/kafka"
	"github.com/ariefcatur/go-merchant-console/internal/orders"
	"github.com/ariefcatur/go-merchant-console/internal/redisx"
)

// Service consumes order status events and keeps a capped alert feed per
// merchant in Redis.
type Service struct {
	Redis       redis.Cmdable
	ServiceName string
	FeedSize    int
	Log         *zap.Logger
}

// HandleStatusChanged is installed as the consumer handler.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := redisx.FirstSeen(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		s.Log.Debug("duplicate event", zap.String("event_id", env.EventID))
		return nil
	}

	if err := s.push(ctx, env.MerchantID, FromStatusChange(env.EventID, p, env.OccurredAt)); err != nil {
		// let the redelivery through dedup
		_ = s.Redis.Del(ctx, dkey).Err()
		return err
	}
	s.Log.Info("alert recorded",
		zap.String("merchant", env.MerchantID), zap.String("order", p.DisplayID), zap.String("to", string(p.To)))
	return nil
}

func (s *Service) push(ctx context.Context, merchantID string, a Alert) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	key := fmt.Sprintf(redisx.KeyAlertFeed, merchantID)
	size := s.FeedSize
	if size <= 0 {
		size = 100
	}
	if err := s.Redis.LPush(ctx, key, b).Err(); err != nil {
		return err
	}
	if err := s.Redis.LTrim(ctx, key, 0, int64(size-1)).Err(); err != nil {
		return err
	}
	return s.Redis.Expire(ctx, key, redisx.TTLAlertFeed).Err()
}

// Feed reads a merchant's alert feed.
type Feed struct {
	Redis      redis.Cmdable
	MerchantID string
}

func (f *Feed) Recent(ctx context.Context, n int64) ([]Alert, error) {
	if n <= 0 {
		n = 20
	}
	raw, err := f.Redis.LRange(ctx, fmt.Sprintf(redisx.KeyAlertFeed, f.MerchantID), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Alert, 0, len(raw))
	for _, r := range raw {
		var a Alert
		if err := json.Unmarshal([]byte(r), &a); err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
