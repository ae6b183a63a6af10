package pubsub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Alwanly/service-endpoint-dispatch/pkg/failure"
	"github.com/Alwanly/service-endpoint-dispatch/pkg/logger"
)

func TestNewRedisPubSubUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := NewRedisPubSub(ctx, RedisConfig{Host: "127.0.0.1", Port: 1}, logger.NewNop())

	var serr *failure.ExternalServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
	if serr.ServiceName != ServiceName {
		t.Fatalf("unexpected service name: %s", serr.ServiceName)
	}
	if !failure.IsTransient(err) {
		t.Fatalf("expected connection failure to be transient")
	}
}
