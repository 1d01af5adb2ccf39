package client

import (
	"context"
	"time"

	"motorhub/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const redisPingTimeout = 5 * time.Second

// Client holds the long-lived connections a service owns.
type Client struct {
	Mongo *mongo.Client
	Redis *redis.Client
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", "error", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
}

// SetRedis connects to Redis when a URL is configured. An empty URL leaves
// Redis unset and callers fall back to in-process stores.
func (c *Client) SetRedis(log *logger.Logger, redisURL string) {
	if redisURL == "" {
		log.Info("Redis not configured, using in-process stores")
		return
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("Invalid Redis URL", "error", err)
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis", "error", err)
	}

	log.Info("Successfully connected to Redis", "addr", opts.Addr)
	c.Redis = rdb
}

func (c *Client) GracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.Mongo != nil {
		_ = c.Mongo.Disconnect(ctx)
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
