// Package events publishes order changes to Redis pub/sub so dashboard
// clients can render live views without polling.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dishdash/config"
	"dishdash/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const Channel = "orders.events"

type OrderEvent struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	DriverID    *int64    `json:"driver_id,omitempty"`
	At          time.Time `json:"at"`
}

type IPublisher interface {
	PublishOrderEvent(ctx context.Context, ev OrderEvent)
	Subscribe(ctx context.Context) (<-chan OrderEvent, func(), error)
	Close() error
}

type publisher struct {
	client *redis.Client
	log    logger.ILogger
}

func New(cfg config.Config, log logger.ILogger) IPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
	})
	return &publisher{client: client, log: log}
}

// PublishOrderEvent is best-effort; a dashboard missing one live update
// is not worth failing an order mutation over.
func (p *publisher) PublishOrderEvent(ctx context.Context, ev OrderEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("failed to marshal order event", logger.Error(err))
		return
	}
	if err := p.client.Publish(ctx, Channel, body).Err(); err != nil {
		p.log.Warning("failed to publish order event", logger.Int64("order_id", ev.OrderID), logger.Error(err))
	}
}

func (p *publisher) Subscribe(ctx context.Context) (<-chan OrderEvent, func(), error) {
	sub := p.client.Subscribe(ctx, Channel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, nil, err
	}

	out := make(chan OrderEvent)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev OrderEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				p.log.Warning("bad order event payload", logger.Error(err))
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { sub.Close() }, nil
}

func (p *publisher) Close() error {
	return p.client.Close()
}
