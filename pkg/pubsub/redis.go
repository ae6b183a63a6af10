package pubsub

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
)

// ServiceName identifies Redis in external service failures.
const ServiceName = "redis"

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type redisPubSub struct {
	client    *redis.Client
	pubsub    *redis.PubSub
	logger    *logger.CanonicalLogger
	messageCh chan Message
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewRedisPubSub connects to Redis. A failed ping is an *failure.ExternalServiceError.
func NewRedisPubSub(ctx context.Context, cfg RedisConfig, log *logger.CanonicalLogger) (PubSub, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, failure.NewExternalServiceError(fmt.Sprintf("failed to connect to %s: %v", addr, err), ServiceName, err)
	}

	r := &redisPubSub{
		client:    client,
		logger:    log,
		messageCh: make(chan Message, 16),
	}

	log.Info("redis client initialized", logger.String("addr", addr))

	return r, nil
}

// Publish publishes a message to a Redis channel
func (r *redisPubSub) Publish(ctx context.Context, channel string, message string) error {
	if err := r.client.Publish(ctx, channel, message).Err(); err != nil {
		ferr := failure.NewExternalServiceError(fmt.Sprintf("failed to publish to %s: %v", channel, err), ServiceName, err)
		r.logger.Error(ferr.Error(), logger.String("channel", channel))
		return ferr
	}
	return nil
}

// Ping reports whether Redis answers
func (r *redisPubSub) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Subscribe subscribes to Redis channels
func (r *redisPubSub) Subscribe(ctx context.Context, channels ...string) (<-chan Message, error) {
	if len(channels) == 0 {
		return nil, failure.NewConfigurationError("no channels to subscribe", "REDIS_CHANNEL")
	}

	r.pubsub = r.client.Subscribe(ctx, channels...)
	if _, err := r.pubsub.Receive(ctx); err != nil {
		return nil, failure.NewExternalServiceError(fmt.Sprintf("failed to subscribe: %v", err), ServiceName, err)
	}

	listenCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go r.listen(listenCtx)

	r.logger.Info("subscribed to redis channels", logger.Strings("channels", channels))
	return r.messageCh, nil
}

// Unsubscribe unsubscribes from Redis channels
func (r *redisPubSub) Unsubscribe(ctx context.Context, channels ...string) error {
	if r.pubsub == nil {
		return nil
	}
	return r.pubsub.Unsubscribe(ctx, channels...)
}

// Close closes the Redis connection. The message channel is closed by the listener.
func (r *redisPubSub) Close() error {
	var err error
	r.closeOnce.Do(func() {
		if r.cancel != nil {
			r.cancel()
		} else {
			close(r.messageCh)
		}
		if r.pubsub != nil {
			_ = r.pubsub.Close()
		}
		if cerr := r.client.Close(); cerr != nil {
			r.logger.WithError(cerr).Error("failed to close redis client")
			err = cerr
		}
	})
	return err
}

// listen forwards messages from subscribed channels until ctx ends
func (r *redisPubSub) listen(ctx context.Context) {
	defer close(r.messageCh)

	ch := r.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping redis listener")
			return
		case m, ok := <-ch:
			if !ok {
				r.logger.Info("redis pubsub channel closed")
				return
			}
			select {
			case r.messageCh <- Message{Channel: m.Channel, Payload: m.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}
}
