package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"

	"github.com/streamforge/user-service/internal/domain/user/model"
)

func newCache(t *testing.T) (*RedisProfileCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	t.Cleanup(mr.Close)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	return NewRedisProfileCache(client), mr
}

func TestRedisProfileCache_MissThenHit(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()
	viewer := uuid.New()

	_, ok, err := cache.Get(ctx, "chan", viewer)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}

	p := model.ChannelProfile{Username: "chan", SubscribersCount: 3, IsSubscribed: true}
	if err := cache.Set(ctx, "chan", viewer, p); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, ok, err := cache.Get(ctx, "chan", viewer)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if got != p {
		t.Fatalf("want %+v got %+v", p, got)
	}
}

func TestRedisProfileCache_ViewerScoped(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()

	p := model.ChannelProfile{Username: "chan", IsSubscribed: true}
	if err := cache.Set(ctx, "chan", uuid.New(), p); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// a different viewer must not see the first viewer's isSubscribed flag
	_, ok, err := cache.Get(ctx, "chan", uuid.New())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss for different viewer")
	}
}

func TestRedisProfileCache_Expires(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()
	viewer := uuid.New()

	if err := cache.Set(ctx, "chan", viewer, model.ChannelProfile{Username: "chan"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(profileTTL * 2)

	_, ok, err := cache.Get(ctx, "chan", viewer)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected expiry")
	}
}
