// Package redis provides a Redis client for interacting with Redis.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/FLock-io/FLock-subnet/internal/config"
)

type Redis struct {
	client rueidis.Client
	cfg    *config.RedisEnvConfig
}

type RedisInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSetMulti(ctx context.Context, key string, fields map[string]string) error
	Close()
}

func NewRedis(cfg *config.RedisEnvConfig) (*Redis, error) {
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)},
		Password:    cfg.RedisPassword,
		Username:    cfg.RedisUsername,
		SelectDB:    cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}

	return &Redis{
		client: client,
		cfg:    cfg,
	}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	resp := r.client.Do(ctx, r.client.B().Get().Key(key).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return "", nil
		}
		return "", err
	}
	return resp.ToString()
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl > 0 {
		return r.client.Do(ctx, r.client.B().Set().Key(key).Value(value).Ex(ttl).Build()).Error()
	}
	return r.client.Do(ctx, r.client.B().Set().Key(key).Value(value).Build()).Error()
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	resp := r.client.Do(ctx, r.client.B().Hgetall().Key(key).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	m, err := resp.AsStrMap()
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Redis) HSetMulti(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	cmd := r.client.B().Hset().Key(key).FieldValue()
	for f, v := range fields {
		cmd = cmd.FieldValue(f, v)
	}
	return r.client.Do(ctx, cmd.Build()).Error()
}

func (r *Redis) Close() {
	r.client.Close()
}
