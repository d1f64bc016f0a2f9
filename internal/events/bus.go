package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const defaultConsumerGroup = "examdesk"

// subscriberFactory builds a subscriber owned by a single listener.
type subscriberFactory func(group string) (message.Subscriber, error)

// Publisher emits named events with string payloads.
type Publisher interface {
	Publish(ctx context.Context, event string, payload string) error
}

// Subscriber delivers payloads of one event until ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, event string) (<-chan string, error)
}

// Bus fans backend events out to bridge listeners. Either every listener
// shares subscriber, or each one gets its own from newSubscriber.
type Bus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	newSubscriber subscriberFactory
	group         string
	logger        *slog.Logger

	closeOnce sync.Once
}

// NewGoChannelBus keeps events in process. Events published while nobody
// listens are dropped. Publish waits for each listener's ack so payloads
// arrive in publish order.
func NewGoChannelBus(logger *slog.Logger) *Bus {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            256,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewSlogLogger(logger))

	return &Bus{publisher: pubSub, subscriber: pubSub, logger: logger}
}

// NewKafkaBus routes events through Kafka so several hosts can share listeners.
// Each listener joins its own consumer group, so every listener sees every
// event from the moment it subscribes.
func NewKafkaBus(brokers []string, consumerGroup string, logger *slog.Logger) (*Bus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	newSubscriber := func(group string) (message.Subscriber, error) {
		saramaConfig := kafka.DefaultSaramaSubscriberConfig()
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest

		subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
			Brokers:               brokers,
			Unmarshaler:           kafka.DefaultMarshaler{},
			ConsumerGroup:         group,
			OverwriteSaramaConfig: saramaConfig,
		}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
		}
		return subscriber, nil
	}

	return newPerListenerBus(publisher, newSubscriber, consumerGroup, logger), nil
}

func newPerListenerBus(publisher message.Publisher, newSubscriber subscriberFactory, group string, logger *slog.Logger) *Bus {
	if group == "" {
		group = defaultConsumerGroup
	}
	return &Bus{publisher: publisher, newSubscriber: newSubscriber, group: group, logger: logger}
}

// listenerGroup derives a consumer group that no other listener shares.
func listenerGroup(base string) string {
	return base + "-" + uuid.NewString()
}

// Publish sends payload under the event's topic.
func (b *Bus) Publish(ctx context.Context, event string, payload string) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(payload))
	msg.SetContext(ctx)
	if err := b.publisher.Publish(event, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}
	return nil
}

// Subscribe returns payloads in publish order. The channel closes when ctx ends.
func (b *Bus) Subscribe(ctx context.Context, event string) (<-chan string, error) {
	subscriber, owned := b.subscriber, message.Subscriber(nil)
	if b.newSubscriber != nil {
		group := listenerGroup(b.group)
		s, err := b.newSubscriber(group)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", event, err)
		}
		b.logger.Debug("Listener joined consumer group", "event", event, "group", group)
		subscriber, owned = s, s
	}

	messages, err := subscriber.Subscribe(ctx, event)
	if err != nil {
		if owned != nil {
			owned.Close()
		}
		return nil, fmt.Errorf("failed to subscribe to %s: %w", event, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		if owned != nil {
			defer func() {
				if err := owned.Close(); err != nil {
					b.logger.Warn("Failed to close listener subscriber", "event", event, "error", err)
				}
			}()
		}
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				payload := string(msg.Payload)
				msg.Ack()
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close releases the publisher and subscriber.
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = errors.Join(b.publisher.Close(), closeIfDistinct(b.subscriber, b.publisher))
	})
	return err
}

func closeIfDistinct(s message.Subscriber, p message.Publisher) error {
	if s == nil || any(s) == any(p) {
		return nil
	}
	return s.Close()
}
