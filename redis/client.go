// Package redis wires the connector to Redis: the credential store and the
// asynq task queue used for background contact fetches.
package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/hibiken/asynq"

	"github.com/Vector/hubspot-connector/redis/config"
)

// Client wraps the asynq producer used to schedule background fetches.
type Client struct {
	client *asynq.Client
	cfg    *config.RedisConfig
	mu     sync.RWMutex
}

// NewClient creates a new task queue client with the provided configuration
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)
	if err := testConnection(client); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{
		client: client,
		cfg:    cfg,
	}, nil
}

// EnqueueTask enqueues a task and returns the id asynq assigned to it.
func (c *Client) EnqueueTask(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, err := c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	return info.ID, nil
}

// Close closes the Redis client connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis client: %w", err)
	}
	return nil
}

// testConnection tests the Redis connection
func testConnection(client *asynq.Client) error {
	_, err := client.EnqueueContext(context.Background(), asynq.NewTask("connection:test", nil))
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}
