package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, Config{}), mr
}

// setClock pins the limiter and miniredis to the same instant so refill math
// is deterministic.
func setClock(l *Limiter, mr *miniredis.Miniredis, at time.Time) {
	l.now = func() time.Time { return at }
	mr.SetTime(at)
}

func TestBucketExhaustionAndRetryAfter(t *testing.T) {
	limiter, mr := testLimiter(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	setClock(limiter, mr, now)

	// login bucket: 5 per minute
	for i := 0; i < 5; i++ {
		decision, err := limiter.Check(ctx, ClassLogin, "203.0.113.7")
		if err != nil {
			t.Fatalf("Check %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("request %d should be admitted", i)
		}
	}

	decision, err := limiter.Check(ctx, ClassLogin, "203.0.113.7")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Allowed {
		t.Fatal("sixth login should be denied")
	}
	if decision.RetryAfter <= 0 || decision.RetryAfter > 12*time.Second {
		t.Errorf("RetryAfter = %v, want within one token refill (12s)", decision.RetryAfter)
	}
}

func TestGreedyRefillRestoresOneTokenAtATime(t *testing.T) {
	limiter, mr := testLimiter(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	setClock(limiter, mr, now)

	for i := 0; i < 5; i++ {
		if _, err := limiter.Check(ctx, ClassLogin, "client"); err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
	}

	// 12s restores exactly one token on a 5/min bucket
	setClock(limiter, mr, now.Add(12*time.Second))

	decision, err := limiter.Check(ctx, ClassLogin, "client")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("refilled token should be admitted")
	}

	decision, err = limiter.Check(ctx, ClassLogin, "client")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if decision.Allowed {
		t.Fatal("only one token should have refilled")
	}
}

func TestBucketsAreIsolatedByClientAndClass(t *testing.T) {
	limiter, mr := testLimiter(t)
	ctx := context.Background()
	setClock(limiter, mr, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		if _, err := limiter.Check(ctx, ClassLogin, "client-a"); err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
	}

	decision, err := limiter.Check(ctx, ClassLogin, "client-b")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed {
		t.Error("client-b has its own login bucket")
	}

	decision, err = limiter.Check(ctx, ClassRefresh, "client-a")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !decision.Allowed {
		t.Error("client-a's refresh bucket is independent of its login bucket")
	}
}

func TestConcurrentChecksAdmitExactlyCapacity(t *testing.T) {
	limiter, mr := testLimiter(t)
	ctx := context.Background()
	setClock(limiter, mr, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))

	const attempts = 20
	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := limiter.Check(ctx, ClassLogin, "client")
			if err != nil {
				t.Errorf("Check: %v", err)
				return
			}
			if decision.Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != 5 {
		t.Errorf("admitted = %d, want exactly the bucket capacity 5", got)
	}
}

func TestUnknownRouteClass(t *testing.T) {
	limiter, _ := testLimiter(t)

	_, err := limiter.Check(context.Background(), RouteClass("bogus"), "client")
	if !errors.Is(err, ErrUnknownRouteClass) {
		t.Fatalf("err = %v, want ErrUnknownRouteClass", err)
	}
}

func TestRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	limiter := New(client, Config{})

	mr.Close()

	_, err := limiter.Check(context.Background(), ClassLogin, "client")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("err = %v, want ErrRedisUnavailable", err)
	}
}
