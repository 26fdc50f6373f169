package cqrs

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	wcqrs "github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/danghamo/warpgate/pkg/logger"
)

// Event transports
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

const topicPrefix = "warpgate-events"

// BusConfig configures the event bus
type BusConfig struct {
	Driver        string
	ConsumerGroup string
	CloseTimeout  time.Duration
}

// Bus is the watermill event bus plus the router that runs its handlers
type Bus struct {
	publisher message.Publisher
	router    *message.Router
	eventBus  *wcqrs.EventBus
	processor *wcqrs.EventProcessor
	logger    *logger.Logger
}

// NewBus creates the event bus. The redis driver needs client; the memory
// driver delivers in-process only.
func NewBus(cfg BusConfig, client *redis.Client, log *logger.Logger) (*Bus, error) {
	busLogger := log.WithComponent("event-bus")
	wmLogger := NewWatermillLogger(log)

	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 5 * time.Second
	}

	var (
		publisher     message.Publisher
		newSubscriber func(handlerName string) (message.Subscriber, error)
	)

	switch cfg.Driver {
	case DriverMemory, "":
		pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger)
		publisher = pubSub
		newSubscriber = func(string) (message.Subscriber, error) {
			return pubSub, nil
		}
	case DriverRedis:
		if client == nil {
			return nil, fmt.Errorf("redis event driver needs a redis client")
		}
		redisPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{
				Client: client,
			},
			wmLogger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create publisher: %w", err)
		}
		publisher = redisPublisher
		// one consumer group per handler so every handler sees every event
		newSubscriber = func(handlerName string) (message.Subscriber, error) {
			return redisstream.NewSubscriber(
				redisstream.SubscriberConfig{
					Client:        client,
					ConsumerGroup: fmt.Sprintf("%s.%s", cfg.ConsumerGroup, handlerName),
				},
				wmLogger,
			)
		}
	default:
		return nil, fmt.Errorf("unknown event driver: %s", cfg.Driver)
	}

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	marshaler := wcqrs.JSONMarshaler{GenerateName: wcqrs.StructName}

	eventBus, err := wcqrs.NewEventBusWithConfig(
		publisher,
		wcqrs.EventBusConfig{
			GeneratePublishTopic: func(params wcqrs.GenerateEventPublishTopicParams) (string, error) {
				return fmt.Sprintf("%s.%s", topicPrefix, params.EventName), nil
			},
			Marshaler: marshaler,
			Logger:    wmLogger,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event bus: %w", err)
	}

	processor, err := wcqrs.NewEventProcessorWithConfig(
		router,
		wcqrs.EventProcessorConfig{
			GenerateSubscribeTopic: func(params wcqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
				return fmt.Sprintf("%s.%s", topicPrefix, params.EventName), nil
			},
			SubscriberConstructor: func(params wcqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
				return newSubscriber(params.HandlerName)
			},
			Marshaler: marshaler,
			Logger:    wmLogger,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event processor: %w", err)
	}

	busLogger.Info("Event bus created", zap.String("driver", cfg.Driver))

	return &Bus{
		publisher: publisher,
		router:    router,
		eventBus:  eventBus,
		processor: processor,
		logger:    busLogger,
	}, nil
}

// Publish implements EventPublisher
func (b *Bus) Publish(ctx context.Context, event interface{}) error {
	return b.eventBus.Publish(ctx, event)
}

// AddHandlers registers event handlers; call before Run
func (b *Bus) AddHandlers(handlers ...wcqrs.EventHandler) error {
	return b.processor.AddHandlers(handlers...)
}

// Run runs the handlers until ctx is done or Close is called
func (b *Bus) Run(ctx context.Context) error {
	return b.router.Run(ctx)
}

// Running is closed once the handlers are subscribed
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Close stops the router and the publisher
func (b *Bus) Close() error {
	if err := b.router.Close(); err != nil {
		b.logger.Error("Router shutdown error", zap.Error(err))
		return err
	}
	return b.publisher.Close()
}
