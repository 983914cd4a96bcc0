package ledger

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the ledger as a redis list under a single key.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

func NewRedisStore(client redis.UniversalClient, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (r *RedisStore) Load(ctx context.Context) ([]string, error) {
	ids, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err == redis.Nil {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", r.key, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Save appends the ids the list does not hold yet, whatever the list length.
// A list that picked up duplicates is never rewritten.
func (r *RedisStore) Save(ctx context.Context, ids []string) error {
	stored, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("lrange %s: %w", r.key, err)
	}

	missing := missingIDs(stored, ids)
	if len(missing) == 0 {
		return nil
	}
	tail := make([]interface{}, 0, len(missing))
	for _, id := range missing {
		tail = append(tail, id)
	}
	if err := r.client.RPush(ctx, r.key, tail...).Err(); err != nil {
		return fmt.Errorf("rpush %s: %w", r.key, err)
	}
	return nil
}

// missingIDs returns the ids absent from stored, in the order of ids.
func missingIDs(stored, ids []string) []string {
	have := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		have[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := have[id]; ok {
			continue
		}
		have[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
