package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds configuration for the redis read-through store
type RedisConfig struct {
	// TTL is the time-to-live for cached records
	TTL time.Duration
	// Prefix is prepended to all keys
	Prefix string
}

// DefaultRedisConfig returns a default redis store configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		TTL:    5 * time.Minute,
		Prefix: "compound:",
	}
}

// RedisStore caches records of another store in redis across requests.
// Records are stored as JSON, so numbers come back as json.Number and times
// as UTC TimestampFormat strings.
type RedisStore struct {
	client *redis.Client
	next   Store
	config RedisConfig
}

// NewRedisStore wraps next with a redis cache
func NewRedisStore(client *redis.Client, next Store, config RedisConfig) *RedisStore {
	return &RedisStore{
		client: client,
		next:   next,
		config: config,
	}
}

// Get returns the cached record or loads it from the wrapped store
func (r *RedisStore) Get(ctx context.Context, collection, key, id string) (Record, error) {
	cacheKey := r.key(collection, key, id)

	raw, err := r.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		return decodeRecord(raw)
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis get %s: %w", cacheKey, err)
	}

	record, err := r.next.Get(ctx, collection, key, id)
	if err != nil {
		return nil, err
	}

	if err := r.store(ctx, collection, key, []Record{record}); err != nil {
		return nil, err
	}
	return record, nil
}

// Filter serves cached ids from redis and loads only the remainder from the
// wrapped store
func (r *RedisStore) Filter(ctx context.Context, collection, key string, ids []string) ([]Record, error) {
	if len(ids) == 0 {
		return []Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(collection, key, id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget %s: %w", collection, err)
	}

	result := make([]Record, 0, len(ids))
	var missing []string
	for i, value := range values {
		s, ok := value.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		record, err := decodeRecord([]byte(s))
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := r.next.Filter(ctx, collection, key, missing)
	if err != nil {
		return nil, err
	}
	if err := r.store(ctx, collection, key, loaded); err != nil {
		return nil, err
	}

	return append(result, loaded...), nil
}

// All lists a collection straight from the wrapped store
func (r *RedisStore) All(ctx context.Context, collection string) ([]Record, error) {
	lister, ok := r.next.(Lister)
	if !ok {
		return nil, ErrListingUnsupported
	}
	return lister.All(ctx, collection)
}

// Invalidate removes a cached record
func (r *RedisStore) Invalidate(ctx context.Context, collection, key, id string) error {
	return r.client.Del(ctx, r.key(collection, key, id)).Err()
}

// Close closes the redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) store(ctx context.Context, collection, key string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	pipe := r.client.Pipeline()
	for _, record := range records {
		id := record.ID(key)
		if id == "" {
			continue
		}
		raw, err := encodeRecord(record)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", collection, id, err)
		}
		pipe.Set(ctx, r.key(collection, key, id), raw, r.config.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", collection, err)
	}
	return nil
}

func (r *RedisStore) key(collection, key, id string) string {
	return r.config.Prefix + collection + ":" + key + ":" + id
}

// encodeRecord writes times as UTC TimestampFormat strings so a cached
// record renders exactly like the record it was loaded from
func encodeRecord(record Record) ([]byte, error) {
	normalized := make(Record, len(record))
	for k, v := range record {
		switch t := v.(type) {
		case time.Time:
			normalized[k] = t.UTC().Format(TimestampFormat)
		case *time.Time:
			if t == nil {
				normalized[k] = nil
				continue
			}
			normalized[k] = t.UTC().Format(TimestampFormat)
		default:
			normalized[k] = v
		}
	}
	return json.Marshal(normalized)
}

func decodeRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var record Record
	if err := dec.Decode(&record); err != nil {
		return nil, fmt.Errorf("failed to decode cached record: %w", err)
	}
	return record, nil
}
