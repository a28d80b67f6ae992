package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedQuote struct {
	Price float64 `json:"price"`
	Label string  `json:"label"`
}

func newTestCache(t *testing.T) (*JSONCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSONCache(client, "ta"), mr
}

func TestJSONCacheRoundTripWithTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "quote:bitcoin:usd", cachedQuote{Price: 50000, Label: "BTC"}, 30*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("ta:quote:bitcoin:usd") {
		t.Fatal("expected prefixed key in redis")
	}

	var got cachedQuote
	ok, err := c.Get(ctx, "quote:bitcoin:usd", &got)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if got.Price != 50000 || got.Label != "BTC" {
		t.Fatalf("unexpected value: %+v", got)
	}

	mr.FastForward(31 * time.Second)
	ok, err = c.Get(ctx, "quote:bitcoin:usd", &got)
	if err != nil || ok {
		t.Fatalf("expected expiry miss, ok=%v err=%v", ok, err)
	}
}

func TestJSONCacheMiss(t *testing.T) {
	c, _ := newTestCache(t)

	var got cachedQuote
	ok, err := c.Get(context.Background(), "missing", &got)
	if err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
}

func TestJSONCacheDecodeError(t *testing.T) {
	c, mr := newTestCache(t)
	_ = mr.Set("ta:broken", "not-json")

	var got cachedQuote
	if _, err := c.Get(context.Background(), "broken", &got); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestJSONCacheDisabled(t *testing.T) {
	var c *JSONCache
	if c.Enabled() {
		t.Fatal("nil cache should be disabled")
	}

	disabled := NewJSONCache(nil, "ta")
	if err := disabled.Set(context.Background(), "k", 1, time.Second); err != nil {
		t.Fatalf("disabled set should be a no-op: %v", err)
	}
	var v int
	ok, err := disabled.Get(context.Background(), "k", &v)
	if ok || err != nil {
		t.Fatalf("disabled get should miss, ok=%v err=%v", ok, err)
	}
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { Client = nil })

	InitRedis(context.Background(), mr.Addr())
	if Client == nil {
		t.Fatal("expected client to be set")
	}

	mr.Close()
	InitRedis(context.Background(), mr.Addr())
	if Client != nil {
		t.Fatal("expected nil client when redis is unreachable")
	}
}
