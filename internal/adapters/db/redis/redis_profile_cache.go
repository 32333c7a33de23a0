package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/streamforge/user-service/internal/domain/user/model"
)

// profileTTL bounds staleness of channel counts; there is no invalidation.
const profileTTL = 30 * time.Second

type RedisProfileCache struct {
	client *redis.Client
}

func NewRedisProfileCache(client *redis.Client) *RedisProfileCache {
	return &RedisProfileCache{
		client: client,
	}
}

func (r *RedisProfileCache) Get(ctx context.Context, username string, viewerID uuid.UUID) (model.ChannelProfile, bool, error) {
	val, err := r.client.Get(ctx, key(username, viewerID)).Result()
	switch {
	case err == redis.Nil:
		return model.ChannelProfile{}, false, nil
	case err != nil:
		return model.ChannelProfile{}, false, err
	}

	var p model.ChannelProfile
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return model.ChannelProfile{}, false, err
	}
	return p, true, nil
}

func (r *RedisProfileCache) Set(ctx context.Context, username string, viewerID uuid.UUID, p model.ChannelProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key(username, viewerID), raw, profileTTL).Err()
}

// isSubscribed depends on who is asking, so the viewer is part of the key
func key(username string, viewerID uuid.UUID) string {
	return "profile:" + username + ":" + viewerID.String()
}
