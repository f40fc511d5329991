// Package blobstore provides a bucket/key object store on top of go-redis/v9.
// Objects are stored as plain string values under "<bucket>:<key>", so a put
// to an existing key overwrites it in place.
package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/supporthq/ticket-enrichment-platform/pkg/config"
)

// ErrNotFound is returned when the requested object does not exist.
var ErrNotFound = fmt.Errorf("object not found")

// Client wraps a go-redis client with object-store semantics.
type Client struct {
	rdb *redis.Client
}

// New creates a blobstore client and verifies the connection with a PING.
func New(cfg config.ObjectStoreConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("blobstore ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// GetObject returns the raw bytes stored at bucket/key, or ErrNotFound.
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, objectKey(bucket, key)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	if err != nil {
		return nil, fmt.Errorf("getting object %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// PutObject stores data at bucket/key, overwriting any existing object.
func (c *Client) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	if err := c.rdb.Set(ctx, objectKey(bucket, key), data, 0).Err(); err != nil {
		return fmt.Errorf("putting object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// ListKeys returns the object keys in a bucket, used by operational tooling
// and integration tests.
func (c *Client) ListKeys(ctx context.Context, bucket string) ([]string, error) {
	prefix := bucket + ":"
	var keys []string
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(prefix):])
	}
	if err := iter.Err(); err != nil {
		return keys, fmt.Errorf("scanning bucket %s: %w", bucket, err)
	}
	return keys, nil
}

// Ping checks store reachability, used by health probes.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func objectKey(bucket, key string) string {
	return bucket + ":" + key
}
