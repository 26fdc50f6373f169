package warp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// RedisRepository implements Repository using one Redis hash per world.
// Each field is a warp name holding the same {"x","y","z"} record as the file document.
type RedisRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRepository creates a new Redis-based warp repository
func NewRedisRepository(client *redis.Client, keyPrefix string) Repository {
	if keyPrefix == "" {
		keyPrefix = "warps"
	}
	return &RedisRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisRepository) key(worldID world.ID) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, worldID.String())
}

// Load reads the world's hash and decodes every record
func (r *RedisRepository) Load(ctx context.Context, worldID world.ID) (Dictionary, error) {
	key := r.key(worldID)

	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, shared.ErrIO(fmt.Sprintf("read %s", key), err)
	}

	doc := make(map[string]json.RawMessage, len(fields))
	for name, value := range fields {
		doc[name] = json.RawMessage(value)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, shared.ErrMalformedData(key, err)
	}

	warps, err := Decode(data)
	if err != nil {
		return nil, shared.ErrMalformedData(key, err)
	}
	return warps, nil
}

// Save replaces the world's hash in a single MULTI/EXEC so readers never see a partial dictionary
func (r *RedisRepository) Save(ctx context.Context, worldID world.ID, warps Dictionary) error {
	key := r.key(worldID)

	fields := make(map[string]interface{}, len(warps))
	for name, p := range warps {
		data, err := json.Marshal(p)
		if err != nil {
			return shared.ErrIO("encode warps", err)
		}
		fields[name] = string(data)
	}

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(fields) > 0 {
				pipe.HSet(ctx, key, fields)
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		return shared.ErrIO(fmt.Sprintf("write %s", key), err)
	}
	return nil
}
