package service

import (
	"testing"
	"time"
)

func TestEmailRateLimiter_AllowsUpToMax(t *testing.T) {
	limiter := NewEmailRateLimiter(time.Minute, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("a@example.com") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if limiter.Allow("a@example.com") {
		t.Fatalf("fourth attempt should be blocked")
	}
}

func TestEmailRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewEmailRateLimiter(time.Minute, 1)

	if !limiter.Allow("a@example.com") {
		t.Fatalf("first key should be allowed")
	}
	if !limiter.Allow("b@example.com") {
		t.Fatalf("second key should be allowed")
	}
	if limiter.Allow("a@example.com") {
		t.Fatalf("first key should be exhausted")
	}
}

func TestEmailRateLimiter_WindowExpires(t *testing.T) {
	limiter := NewEmailRateLimiter(10*time.Millisecond, 1)

	if !limiter.Allow("a@example.com") {
		t.Fatalf("first attempt should be allowed")
	}
	if limiter.Allow("a@example.com") {
		t.Fatalf("second attempt should be blocked")
	}
	time.Sleep(20 * time.Millisecond)
	if !limiter.Allow("a@example.com") {
		t.Fatalf("attempt after window should be allowed")
	}
}
