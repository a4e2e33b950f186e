package rate

import (
	"context"
	"testing"
	"time"

	"github.com/AbinJoseph007/new-member-api/internal/cache"
)

func TestWindowLimiter_AllowsUpToMax(t *testing.T) {
	ctx := context.Background()
	l := NewWindowLimiter(cache.NewMemory("test"), "otp", 3, time.Minute)

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d should be allowed", i)
		}
		if res.CurrentHits != int64(i) {
			t.Fatalf("hits = %d, want %d", res.CurrentHits, i)
		}
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if res.Allowed {
		t.Fatal("hit above max should be denied")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("retryAfter = %v", res.RetryAfter)
	}
}

func TestWindowLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewWindowLimiter(cache.NewMemory("test"), "otp", 1, time.Minute)

	if res, _ := l.Allow(ctx, "a"); !res.Allowed {
		t.Fatal("first hit for key a should pass")
	}
	if res, _ := l.Allow(ctx, "a"); res.Allowed {
		t.Fatal("second hit for key a should be denied")
	}
	if res, _ := l.Allow(ctx, "b"); !res.Allowed {
		t.Fatal("key b has its own window")
	}
}

func TestUnlimited(t *testing.T) {
	res, err := Unlimited{}.Allow(context.Background(), "any")
	if err != nil || !res.Allowed {
		t.Fatalf("unlimited must always allow, res=%+v err=%v", res, err)
	}
}
