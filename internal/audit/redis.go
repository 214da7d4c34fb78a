package audit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSink keeps the audit log in a Redis list so several API instances can
// share one log. RPUSH preserves append order; Filter pulls the whole list
// and scans client side, same semantics as the file sink.
type RedisSink struct {
	rdb *redis.Client
	key string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

func NewRedisSink(cfg RedisConfig) (*RedisSink, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	key := cfg.Key
	if key == "" {
		key = "banka:audit"
	}

	return &RedisSink{rdb: rdb, key: key}, nil
}

func (s *RedisSink) Record(ctx context.Context, line string) error {
	return s.rdb.RPush(ctx, s.key, line).Err()
}

func (s *RedisSink) Filter(ctx context.Context, substrings []string) ([]string, error) {
	lines, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var out []string
	for _, line := range lines {
		if matchesAny(line, substrings) {
			out = append(out, line)
		}
	}
	return out, nil
}

func (s *RedisSink) Close() error {
	return s.rdb.Close()
}
