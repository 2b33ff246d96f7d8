package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr      string // Redis server address (host:port)
	Password  string // Redis password (optional)
	DB        int    // Redis database number
	Namespace string // hash name prefix, "<namespace>:prefs"
}

// Redis stores all entries as fields of one hash and announces every write
// on the "<hash>:changed" channel
type Redis struct {
	client  *redis.Client
	hash    string
	channel string
}

// OpenRedis connects to Redis and verifies the connection
func OpenRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return NewRedis(client, cfg.Namespace), nil
}

// NewRedis wraps an existing client
func NewRedis(client *redis.Client, namespace string) *Redis {
	if namespace == "" {
		namespace = "flow-settings"
	}
	hash := namespace + ":prefs"
	return &Redis{client: client, hash: hash, channel: hash + ":changed"}
}

func (r *Redis) GetAll(ctx context.Context) (map[string][]byte, error) {
	fields, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", r.hash, err)
	}

	out := make(map[string][]byte, len(fields))
	for k, v := range fields {
		out[k] = []byte(v)
	}
	return out, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.hash, key, value)
		pipe.Publish(ctx, r.channel, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}
	return nil
}

// Changes subscribes to the write announcements. The subscription is active
// when Changes returns. Bursts of writes may be coalesced into one signal.
func (r *Redis) Changes(ctx context.Context) (<-chan struct{}, error) {
	sub := r.client.Subscribe(ctx, r.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", r.channel, err)
	}

	out := make(chan struct{}, 1)
	msgs := sub.Channel()
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) Close() error { return r.client.Close() }
