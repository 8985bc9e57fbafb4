package goToken

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goToken/jwt"
)

// redisKeyStore persists key records in a Redis hash keyed by kid, so a
// keyring hydrated in a sibling process can verify tokens signed here.
// Records past their retire time are dropped on load.
type redisKeyStore struct {
	rdb    *redis.Client
	prefix string
}

func newRedisKeyStore(rdb *redis.Client, prefix string) *redisKeyStore {
	if prefix == "" {
		prefix = "gt"
	}
	return &redisKeyStore{rdb: rdb, prefix: prefix}
}

func (s *redisKeyStore) key() string {
	return s.prefix + ":keys"
}

func (s *redisKeyStore) Save(ctx context.Context, rec *jwt.KeyRecord) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode key record: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.key(), rec.KID, blob).Err(); err != nil {
		return fmt.Errorf("persist key record: %w", err)
	}
	return nil
}

func (s *redisKeyStore) Retire(ctx context.Context, kid string, retireAt time.Time) error {
	blob, err := s.rdb.HGet(ctx, s.key(), kid).Result()
	if err != nil {
		return fmt.Errorf("load key record %s: %w", kid, err)
	}
	var rec jwt.KeyRecord
	if err := json.Unmarshal([]byte(blob), &rec); err != nil {
		return fmt.Errorf("decode key record %s: %w", kid, err)
	}
	rec.RetireAt = retireAt
	updated, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encode key record %s: %w", kid, err)
	}
	if err := s.rdb.HSet(ctx, s.key(), kid, updated).Err(); err != nil {
		return fmt.Errorf("persist retired key %s: %w", kid, err)
	}
	return nil
}

func (s *redisKeyStore) Load(ctx context.Context) ([]*jwt.KeyRecord, error) {
	blobs, err := s.rdb.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("load key records: %w", err)
	}

	now := time.Now()
	recs := make([]*jwt.KeyRecord, 0, len(blobs))
	for kid, blob := range blobs {
		var rec jwt.KeyRecord
		if err := json.Unmarshal([]byte(blob), &rec); err != nil {
			return nil, fmt.Errorf("decode key record %s: %w", kid, err)
		}
		if !rec.RetireAt.IsZero() && !rec.RetireAt.After(now) {
			// Expired key material has no remaining purpose; drop it.
			_ = s.rdb.HDel(ctx, s.key(), kid).Err()
			continue
		}
		recs = append(recs, &rec)
	}
	return recs, nil
}
