package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultSequenceKey = "storefront:order:seq"

// RedisOrderSequenceはINCRで注文番号の連番を払い出す
// 複数インスタンスでも重複しない
type RedisOrderSequence struct {
	client *redis.Client
	key    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClientは接続確認までする
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func NewRedisOrderSequence(client *redis.Client, key string) *RedisOrderSequence {
	if key == "" {
		key = defaultSequenceKey
	}
	return &RedisOrderSequence{client: client, key: key}
}

func (s *RedisOrderSequence) Next(ctx context.Context) (int64, error) {
	n, err := s.client.Incr(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("incr %s: %w", s.key, err)
	}
	return n, nil
}
