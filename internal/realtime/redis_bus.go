package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultChannel is the Redis pub/sub channel carrying status events.
const DefaultChannel = "pharmaguard:status"

// RedisBus carries status events over Redis pub/sub.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	log     *logrus.Logger
}

// NewRedisBus creates a bus on an existing client. The client stays owned by the caller.
func NewRedisBus(rdb *redis.Client, channel string, logger *logrus.Logger) (*RedisBus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{rdb: rdb, channel: channel, log: logger}, nil
}

// Publish sends event to every subscribed gateway.
func (b *RedisBus) Publish(ctx context.Context, event domain.StatusEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

// StartForwarder subscribes to the channel and calls onEvent for every decoded event
// until ctx is cancelled.
func (b *RedisBus) StartForwarder(ctx context.Context, onEvent func(domain.StatusEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var event domain.StatusEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					b.log.WithError(err).Warn("Bad status event payload on redis bus")
					continue
				}
				onEvent(event)
			}
		}
	}()

	return nil
}

// Close is a no-op; the Redis client belongs to the session store.
func (b *RedisBus) Close() error {
	return nil
}
