package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-merchant-console/internal/orders"
)

// StatusEvents publishes committed order transitions.
type StatusEvents struct {
	Producer   *Producer
	Service    string
	MerchantID string
	Log        *zap.Logger
}

// OnCommit matches orders.Controller.OnCommit.
func (s *StatusEvents) OnCommit(_ context.Context, c orders.Change) {
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}
	ev, err := orders.NewStatusChangedEvent(s.Service, s.MerchantID, c, time.Now())
	if err != nil {
		log.Error("build status event", zap.String("order", c.After.DisplayID), zap.Error(err))
		return
	}
	b, err := MarshalEnvelope(ev)
	if err != nil {
		log.Error("encode status event", zap.String("order", c.After.DisplayID), zap.Error(err))
		return
	}
	s.Producer.Publish(orders.PartitionKey(c.ID), b,
		kafka.Header{Key: "x-event-type", Value: []byte(orders.EventOrderStatusChanged)},
		kafka.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
