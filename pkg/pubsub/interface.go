package pubsub

import "context"

// Message is one payload received on a channel
type Message struct {
	Channel string
	Payload string
}

// Publisher announces endpoint changes to other instances
type Publisher interface {
	Publish(ctx context.Context, channel string, message string) error
	Close() error
}

// Subscriber delivers messages until its context ends or it is closed,
// then closes the returned channel
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) (<-chan Message, error)
	Unsubscribe(ctx context.Context, channels ...string) error
	Close() error
}

// PubSub combines Publisher and Subscriber with a liveness check
type PubSub interface {
	Publisher
	Subscriber
	Ping(ctx context.Context) error
}
