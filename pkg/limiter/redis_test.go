package limiter

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test: Redis not available (%v)", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLimiter_Integration(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, err := NewRedisLimiter(client)
	if err != nil {
		t.Fatalf("Failed to create RedisLimiter: %v", err)
	}

	t.Run("BasicFlow", func(t *testing.T) {
		key := fmt.Sprintf("it_test_%d", time.Now().UnixNano())
		b := Bucket{Key: key, Scope: ScopeIP, Limit: Limit{MaxTokens: 2, RefillPerSec: 0.1}}

		if err := l.Allow(ctx, b); err != nil {
			t.Fatalf("Expected first request to be allowed: %v", err)
		}
		if err := l.Allow(ctx, b); err != nil {
			t.Fatalf("Expected second request to be allowed: %v", err)
		}

		err := l.Allow(ctx, b)
		var ee *ExceededError
		if !errors.As(err, &ee) {
			t.Fatalf("Expected third request to be denied with *ExceededError, got %v", err)
		}
		if ee.Scope != ScopeIP {
			t.Errorf("Expected scope %q on denial, got %q", ScopeIP, ee.Scope)
		}
	})

	t.Run("AtomicBatch", func(t *testing.T) {
		suffix := time.Now().UnixNano()
		a := Bucket{Key: fmt.Sprintf("batch_a_%d", suffix), Scope: ScopeAPI, Limit: Limit{MaxTokens: 10, RefillPerSec: 0.1}}
		empty := Bucket{Key: fmt.Sprintf("batch_b_%d", suffix), Scope: ScopeUser, Limit: Limit{MaxTokens: 1, RefillPerSec: 0.001}}

		if err := l.Allow(ctx, empty); err != nil {
			t.Fatalf("Draining request denied: %v", err)
		}

		err := l.Allow(ctx, a, empty)
		var ee *ExceededError
		if !errors.As(err, &ee) || ee.Scope != ScopeUser {
			t.Fatalf("Expected denial on the drained user bucket, got %v", err)
		}

		// the denied batch must not have touched bucket A
		for i := 0; i < 10; i++ {
			if err := l.Allow(ctx, a); err != nil {
				t.Fatalf("Bucket A lost tokens to a denied batch (request %d: %v)", i, err)
			}
		}
	})

	t.Run("DistributedState", func(t *testing.T) {
		key := fmt.Sprintf("dist_test_%d", time.Now().UnixNano())
		b := Bucket{Key: key, Scope: ScopeUser, Limit: Limit{MaxTokens: 1, RefillPerSec: 0.001}}

		// Instance A consumes the token
		limiterA, _ := NewRedisLimiter(client)
		limiterA.Allow(ctx, b)

		// Instance B tries to consume same token
		limiterB, _ := NewRedisLimiter(client)
		if err := limiterB.Allow(ctx, b); !IsExceeded(err) {
			t.Errorf("Instance B should see the token consumed by Instance A, got %v", err)
		}
	})

	t.Run("ScriptCacheRecovery", func(t *testing.T) {
		key := fmt.Sprintf("noscript_%d", time.Now().UnixNano())
		b := Bucket{Key: key, Scope: ScopeIP, Limit: Limit{MaxTokens: 5, RefillPerSec: 1}}

		if err := l.Allow(ctx, b); err != nil {
			t.Fatalf("Priming request failed: %v", err)
		}

		// evict the script server-side; the next call must reload and retry
		if err := client.ScriptFlush(ctx).Err(); err != nil {
			t.Fatalf("SCRIPT FLUSH failed: %v", err)
		}
		if err := l.Allow(ctx, b); err != nil {
			t.Errorf("Expected transparent recovery after script flush, got %v", err)
		}
	})
}

func TestRedisLimiter_Options(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	t.Run("WithPrefix", func(t *testing.T) {
		prefix := "custom_app:"
		key := fmt.Sprintf("opt_test_%d", time.Now().UnixNano())

		l, err := NewRedisLimiter(client, WithPrefix(prefix))
		if err != nil {
			t.Fatalf("Failed to create limiter: %v", err)
		}

		b := Bucket{Key: key, Scope: ScopeIP, Limit: Limit{MaxTokens: 1, RefillPerSec: 1}}
		if err := l.Allow(ctx, b); err != nil {
			t.Fatalf("Allow failed: %v", err)
		}

		exists, err := client.Exists(ctx, prefix+key).Result()
		if err != nil {
			t.Fatalf("Redis Exists failed: %v", err)
		}
		if exists == 0 {
			t.Errorf("Expected key %s to exist, but it does not", prefix+key)
		}
	})

	t.Run("NilClient", func(t *testing.T) {
		if _, err := NewRedisLimiter(nil); err == nil {
			t.Error("Expected error for nil client")
		}
	})
}

func TestRedisLimiter_ContextCancellation(t *testing.T) {
	client := newTestClient(t)

	l, err := NewRedisLimiter(client)
	if err != nil {
		t.Fatalf("Failed to create limiter: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := Bucket{Key: "user_cancel", Scope: ScopeUser, Limit: Limit{MaxTokens: 100, RefillPerSec: 100}}
	err = l.Allow(ctx, b)
	if err == nil {
		t.Fatal("Expected an error due to cancelled context, but got nil")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected error to be context.Canceled, but got: %v", err)
	}
	if IsExceeded(err) {
		t.Error("A transport error must never be reported as a rate-limit denial")
	}
}
