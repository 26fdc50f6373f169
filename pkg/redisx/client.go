package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/danghamo/warpgate/pkg/logger"
)

// Client wraps redis.Client with connection logging and health checks
type Client struct {
	*redis.Client
	logger *logger.Logger
}

// ClientOption represents an option for creating a new Redis client
type ClientOption func(*clientOptions)

type clientOptions struct {
	connectTimeout time.Duration
	db             *int
}

// WithConnectTimeout bounds the initial ping
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(opts *clientOptions) {
		opts.connectTimeout = d
	}
}

// WithDB overrides the database number given in the URL
func WithDB(db int) ClientOption {
	return func(opts *clientOptions) {
		opts.db = &db
	}
}

// NewClient creates a Redis client from URL and checks the connection
func NewClient(redisURL string, log *logger.Logger, opts ...ClientOption) (*Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL cannot be empty")
	}

	if log == nil {
		log = logger.GetGlobalLogger()
	}

	options := &clientOptions{connectTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(options)
	}

	redisOptions, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if options.db != nil {
		redisOptions.DB = *options.db
	}

	client := &Client{
		Client: redis.NewClient(redisOptions),
		logger: log.WithComponent("redisx"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), options.connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client.logger.Info("Redis client connected successfully",
		zap.String("addr", redisOptions.Addr),
		zap.Int("db", redisOptions.DB),
		zap.Int("pool_size", redisOptions.PoolSize),
	)

	return client, nil
}

// Close closes the Redis client connection
func (c *Client) Close() error {
	c.logger.Info("Closing Redis connection")
	return c.Client.Close()
}

// HealthCheck performs a health check on the Redis connection
func (c *Client) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := c.Ping(ctx).Err()
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Redis health check failed",
			zap.Error(err),
			zap.Duration("duration", duration),
		)
		return err
	}

	c.logger.Debug("Redis health check passed",
		zap.Duration("duration", duration),
	)

	return nil
}
