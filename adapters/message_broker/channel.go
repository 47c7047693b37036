package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yanyshev/ml-research-14team/domain"
	"github.com/yanyshev/ml-research-14team/utils/log"
)

// ChannelMessageBroker implements domain.MessageBroker over in-process Go
// channels. One topic+routingKey pair maps to one buffered channel, so a
// run's updates are delivered FIFO to its subscriber.
type ChannelMessageBroker struct {
	topics map[string]chan domain.Message
	mu     sync.Mutex
	closed bool
}

// NewChannelMessageBroker creates a new channel-based message broker
func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]chan domain.Message),
	}
}

func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// channel returns the channel for topic+routingKey, creating it on first
// use. Caller must hold no locks.
func (b *ChannelMessageBroker) channel(topic, routingKey string) (chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}

	key := makeKey(topic, routingKey)
	channel, exists := b.topics[key]
	if !exists {
		channel = make(chan domain.Message, 100)
		b.topics[key] = channel
	}
	return channel, nil
}

// Publish sends a message to a specific topic and routing key
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	channel, err := b.channel(topic, routingKey)
	if err != nil {
		return err
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	select {
	case channel <- msg:
		log.WithCtx(ctx).Debug("📤 Message published to topic",
			zap.String("topic", topic),
			zap.String("routingKey", routingKey),
			zap.Int("payload_size", len(message)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("topic channel is full: %s:%s", topic, routingKey)
	}
}

// Subscribe listens for messages on a specific topic and routing key
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	channel, err := b.channel(topic, routingKey)
	if err != nil {
		return nil, err
	}

	log.WithCtx(ctx).Info("📡 Subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return channel, nil
}

// Close closes the message broker and all topic channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, channel := range b.topics {
		close(channel)
		log.WithCtx(context.Background()).Debug("🔒 Closed topic channel", zap.String("key", key))
	}

	b.topics = make(map[string]chan domain.Message)

	log.WithCtx(context.Background()).Info("🔒 Message broker closed")
	return nil
}

// TopicCount returns the number of active topics (useful for monitoring)
func (b *ChannelMessageBroker) TopicCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics)
}
