package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// TestNewRateLimiterStartsFull verifies the bucket starts at full capacity.
func TestNewRateLimiterStartsFull(t *testing.T) {
	rl := NewRateLimiter(1.0, 10.0)
	tokens := rl.GetCurrentTokens()
	if tokens < 9.9 { // Allow small float imprecision
		t.Errorf("expected ~10 tokens, got %.2f", tokens)
	}
}

// TestTryAcquireConsumesToken verifies token consumption.
func TestTryAcquireConsumesToken(t *testing.T) {
	rl := NewRateLimiter(1.0, 5.0)

	// Should succeed 5 times (burst capacity)
	for i := 0; i < 5; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("tryAcquire() failed on attempt %d", i+1)
		}
	}

	// 6th should fail (bucket exhausted, no time for refill)
	if rl.tryAcquire() {
		t.Error("tryAcquire() should fail when bucket is empty")
	}
}

// TestTokenRefill verifies tokens refill over time.
func TestTokenRefill(t *testing.T) {
	rl := NewRateLimiter(10.0, 10.0) // 10 tokens/sec

	// Drain all tokens
	for i := 0; i < 10; i++ {
		rl.tryAcquire()
	}

	// Wait for partial refill
	time.Sleep(200 * time.Millisecond) // Should refill ~2 tokens

	tokens := rl.GetCurrentTokens()
	if tokens < 1.5 || tokens > 3.0 {
		t.Errorf("expected ~2 tokens after 200ms at 10/sec, got %.2f", tokens)
	}
}

// TestTokenRefillCapsAtMax verifies tokens don't exceed max capacity.
func TestTokenRefillCapsAtMax(t *testing.T) {
	rl := NewRateLimiter(100.0, 5.0) // Very fast refill, low max

	time.Sleep(100 * time.Millisecond)

	tokens := rl.GetCurrentTokens()
	if tokens > 5.1 { // Allow tiny float imprecision
		t.Errorf("tokens should cap at 5, got %.2f", tokens)
	}
}

// TestWaitBlocksUntilTokenAvailable verifies Wait blocks and then succeeds.
func TestWaitBlocksUntilTokenAvailable(t *testing.T) {
	rl := NewRateLimiter(10.0, 1.0) // 10 tokens/sec, 1 max

	// Consume the only token
	rl.tryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Wait(ctx)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Wait() returned error: %v", err)
	}

	// Should have waited ~100ms (1 token / 10 tokens/sec)
	if elapsed < 50*time.Millisecond || elapsed > 300*time.Millisecond {
		t.Errorf("Wait() took %v, expected ~100ms", elapsed)
	}
}

// TestWaitRespectsContextCancellation verifies Wait returns on context cancel.
func TestWaitRespectsContextCancellation(t *testing.T) {
	rl := NewRateLimiter(0.1, 1.0) // Very slow refill

	rl.tryAcquire()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	if err == nil {
		t.Error("Wait() should return error when context is cancelled")
	}
	if err != context.DeadlineExceeded {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

// TestBurstBehavior verifies rapid consumption depletes the bucket.
func TestBurstBehavior(t *testing.T) {
	rl := NewRateLimiter(1.0, 20.0) // 1/sec refill, 20 burst capacity

	for i := 0; i < 20; i++ {
		if !rl.tryAcquire() {
			t.Fatalf("burst failed at token %d", i+1)
		}
	}

	if rl.tryAcquire() {
		t.Error("should fail after burst exhaustion")
	}
}

// TestConcurrentWait verifies the limiter is safe under concurrent callers.
func TestConcurrentWait(t *testing.T) {
	rl := NewRateLimiter(100.0, 10.0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- rl.Wait(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent Wait() returned error: %v", err)
		}
	}
}

// TestFolderServiceLimiterDefaults verifies the document-API scope limiter.
func TestFolderServiceLimiterDefaults(t *testing.T) {
	rl := NewFolderServiceRateLimiter()
	if tokens := rl.GetCurrentTokens(); tokens < 39.0 {
		t.Errorf("expected full burst capacity at start, got %.2f", tokens)
	}
}
