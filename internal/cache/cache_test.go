package cache

import (
	"context"
	"testing"
)

func TestConstructorsRequireClient(t *testing.T) {
	if _, err := NewRedisEmbeddingCache(nil, 0, ""); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisVerdictCache(nil, 0, ""); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisClient(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for empty addr")
	}
}

func TestNilCachesAreNoops(t *testing.T) {
	var emb *redisEmbeddingCache
	got, err := emb.GetMany(context.Background(), []string{"a", "b"})
	if err != nil || len(got) != 2 || got[0] != nil {
		t.Fatalf("GetMany on nil cache = %v, %v", got, err)
	}
	if err := emb.SetMany(context.Background(), []string{"a"}, [][]float32{{1}}); err != nil {
		t.Fatalf("SetMany on nil cache: %v", err)
	}

	var ver *redisVerdictCache
	if _, ok, err := ver.Get(context.Background(), "k"); ok || err != nil {
		t.Fatalf("Get on nil cache = %v, %v", ok, err)
	}
}
