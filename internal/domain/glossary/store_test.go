package glossary

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	if err := store.Put(ctx, "en:es", "JHU", "Johns Hopkins"); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := store.Put(ctx, "en:es", "jhu", "JHU"); err != nil {
		t.Fatalf("Put overwrite error: %v", err)
	}

	terms, err := store.Terms(ctx, "en:es")
	if err != nil {
		t.Fatalf("Terms error: %v", err)
	}
	if len(terms) != 1 || terms["jhu"] != "JHU" {
		t.Fatalf("unexpected terms: %v", terms)
	}

	pairs, err := store.Pairs(ctx)
	if err != nil {
		t.Fatalf("Pairs error: %v", err)
	}
	if len(pairs) != 1 || pairs[0] != "en:es" {
		t.Fatalf("unexpected pairs: %v", pairs)
	}

	if err := store.Remove(ctx, "en:es", "JHU"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	terms, _ = store.Terms(ctx, "en:es")
	if len(terms) != 0 {
		t.Fatalf("expected empty terms after removal, got %v", terms)
	}
}

func TestMemoryStoreRejectsEmptyTerm(t *testing.T) {
	store := NewMemory()
	if err := store.Put(context.Background(), "en:es", "  ", "x"); err == nil {
		t.Fatalf("expected error for empty term")
	}
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	store, err := NewRedis(Config{
		Redis: &RedisConfig{
			Addr: mr.Addr(),
		},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(ctx)
	})

	if err := store.Put(ctx, "en:fr", "Baltimore", "Baltimore"); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	terms, err := store.Terms(ctx, "en:fr")
	if err != nil {
		t.Fatalf("Terms error: %v", err)
	}
	if terms["baltimore"] != "Baltimore" {
		t.Fatalf("unexpected terms: %v", terms)
	}

	pairs, err := store.Pairs(ctx)
	if err != nil {
		t.Fatalf("Pairs error: %v", err)
	}
	if len(pairs) != 1 || pairs[0] != "en:fr" {
		t.Fatalf("unexpected pairs: %v", pairs)
	}

	if err := store.Remove(ctx, "en:fr", "Baltimore"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	terms, _ = store.Terms(ctx, "en:fr")
	if len(terms) != 0 {
		t.Fatalf("expected empty terms after removal, got %v", terms)
	}
}

func TestFactorySelectsDriver(t *testing.T) {
	store, err := New(Config{})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if _, ok := store.(*memoryStore); !ok {
		t.Fatalf("expected memory store by default")
	}

	if _, err := New(Config{Driver: "postgres"}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
