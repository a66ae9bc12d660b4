package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
)

// DefaultAuthEventChannel is the Pub/Sub channel session changes travel on.
const DefaultAuthEventChannel = "auth:events"

type eventEnvelope struct {
	Origin string                 `json:"origin"`
	Event  domainauth.ChangeEvent `json:"event"`
}

// EventBusOptions configures an EventBus.
type EventBusOptions struct {
	Channel string
	// Origin identifies this instance; events it published are not delivered
	// back to it. Defaults to a random id.
	Origin string
	Logger *slog.Logger
}

// EventBus fans session change events out to every application instance over
// Redis Pub/Sub so a sign-out on one instance evicts cached sessions on all.
type EventBus struct {
	client  redis.UniversalClient
	channel string
	origin  string
	logger  *slog.Logger
}

// NewEventBus creates an EventBus.
func NewEventBus(client redis.UniversalClient, opts EventBusOptions) *EventBus {
	channel := opts.Channel
	if channel == "" {
		channel = DefaultAuthEventChannel
	}
	origin := opts.Origin
	if origin == "" {
		origin = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		client:  client,
		channel: channel,
		origin:  origin,
		logger:  logger.With("component", "auth_event_bus"),
	}
}

// Publish sends ev to the other instances.
func (b *EventBus) Publish(ctx context.Context, ev domainauth.ChangeEvent) error {
	data, err := json.Marshal(eventEnvelope{Origin: b.origin, Event: ev})
	if err != nil {
		return fmt.Errorf("marshal auth event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("publish auth event: %w", err)
	}
	return nil
}

// Listen subscribes to the channel and calls handler for every event another
// instance publishes. It blocks until ctx is done.
func (b *EventBus) Listen(ctx context.Context, handler func(domainauth.ChangeEvent)) error {
	ps := b.client.Subscribe(ctx, b.channel)
	defer func() {
		if err := ps.Close(); err != nil {
			b.logger.Debug("close subscription", "error", err)
		}
	}()
	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("auth event subscription closed")
			}
			var env eventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("drop malformed auth event", "error", err)
				continue
			}
			if env.Origin == b.origin {
				continue
			}
			handler(env.Event)
		}
	}
}
