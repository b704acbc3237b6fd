package session

import (
	"context"
	"errors"
	"fmt"

	"ivr-flow/internal/config"

	"github.com/redis/go-redis/v9"
)

const maxUpdateAttempts = 5

// RedisStore keeps one JSON document per call under prefix+call_uuid with
// an expiring lifetime.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	opts   Options
}

func NewRedisStore(client redis.UniversalClient, prefix string, opts Options) *RedisStore {
	if prefix == "" {
		prefix = "ivr:session:"
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		opts:   opts.withDefaults(),
	}
}

// NewRedisClient builds a client from configuration; redis.url wins over
// the discrete address fields.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), nil
}

func (s *RedisStore) key(callUUID string) string {
	return s.prefix + callUUID
}

func (s *RedisStore) Create(ctx context.Context, callUUID, from, to string) (*Session, error) {
	sess := New(callUUID, from, to, s.opts.RootMenuID, s.opts.Now())
	data, err := encode(sess)
	if err != nil {
		return nil, err
	}

	if s.opts.RejectDuplicates {
		ok, err := s.client.SetNX(ctx, s.key(callUUID), data, s.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx: %w", err)
		}
		if !ok {
			return nil, ErrExists
		}
		return sess, nil
	}

	if err := s.client.Set(ctx, s.key(callUUID), data, s.opts.TTL).Err(); err != nil {
		return nil, fmt.Errorf("redis set: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, callUUID string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.key(callUUID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decode(callUUID, raw)
}

// Update is a WATCH/MULTI compare-and-swap, retried when another writer
// touched the key in between.
func (s *RedisStore) Update(ctx context.Context, callUUID string, fn func(*Session) error) (*Session, error) {
	key := s.key(callUUID)

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		var updated *Session
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("redis get: %w", err)
			}
			sess, err := decode(callUUID, raw)
			if err != nil {
				return err
			}
			data, err := apply(sess, s.opts.Now(), fn)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.opts.TTL)
				return nil
			})
			if err != nil {
				return err
			}
			updated = sess
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrConflict
}

func (s *RedisStore) Delete(ctx context.Context, callUUID string) (bool, error) {
	n, err := s.client.Del(ctx, s.key(callUUID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
