package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores JSON-encoded records in one Redis list per
// correlation id, plus a set indexing the known ids for Clear and Size.
// RPUSH preserves insertion order, so the first element of a list is the
// earliest ingested record for that id.
type RedisRepository[R Correlated] struct {
	client     *redis.Client
	collection string
}

// NewRedisRepository constructs a repository over the given client. The
// collection name namespaces the keys so unrelated record shapes never
// collide.
func NewRedisRepository[R Correlated](client *redis.Client, collection string) *RedisRepository[R] {
	return &RedisRepository[R]{client: client, collection: collection}
}

func (r *RedisRepository[R]) listKey(messageID string) string {
	return fmt.Sprintf("%s:msg:%s", r.collection, messageID)
}

func (r *RedisRepository[R]) indexKey() string {
	return r.collection + ":ids"
}

func (r *RedisRepository[R]) InsertOne(ctx context.Context, record R) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	id := record.CorrelationID()
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.listKey(id), data)
	pipe.SAdd(ctx, r.indexKey(), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRepository[R]) InsertMany(ctx context.Context, records []R) error {
	for _, record := range records {
		if err := r.InsertOne(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (r *RedisRepository[R]) FindAll(ctx context.Context, query Query) ([]R, error) {
	if query.MessageID == "" {
		return r.All(ctx)
	}

	raw, err := r.client.LRange(ctx, r.listKey(query.MessageID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return decodeAll[R](raw)
}

func (r *RedisRepository[R]) FindOne(ctx context.Context, query Query) (R, bool, error) {
	var zero R

	records, err := r.FindAll(ctx, query)
	if err != nil {
		return zero, false, err
	}
	if len(records) == 0 {
		return zero, false, nil
	}
	return records[0], true, nil
}

func (r *RedisRepository[R]) All(ctx context.Context) ([]R, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, err
	}

	var out []R
	for _, id := range ids {
		raw, err := r.client.LRange(ctx, r.listKey(id), 0, -1).Result()
		if err != nil {
			return nil, err
		}
		records, err := decodeAll[R](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (r *RedisRepository[R]) Clear(ctx context.Context) error {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.listKey(id))
	}
	keys = append(keys, r.indexKey())
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository[R]) Size(ctx context.Context) (int64, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, err
	}

	var total int64
	for _, id := range ids {
		n, err := r.client.LLen(ctx, r.listKey(id)).Result()
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func decodeAll[R Correlated](raw []string) ([]R, error) {
	out := make([]R, 0, len(raw))
	for _, item := range raw {
		var record R
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}
