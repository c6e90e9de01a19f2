package kurir

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testLimiter wires a fake clock whose sleep advances the clock.
func testLimiter(maxPerMinute int) (*RateLimitInterceptor, *time.Time, *[]time.Duration) {
	current := time.Unix(1_700_000_000, 0)
	var waits []time.Duration

	rl := NewRateLimitInterceptor(maxPerMinute)
	rl.now = func() time.Time { return current }
	rl.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		current = current.Add(d)
		return nil
	}
	return rl, &current, &waits
}

func admit(t *testing.T, rl *RateLimitInterceptor) {
	t.Helper()
	dec, err := rl.InterceptRequest(context.Background(), NewRequest("http://example.com"))
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if dec.Decision != Proceed {
		t.Fatalf("decision = %v, want Proceed", dec.Decision)
	}
}

func TestRateLimitNoDelayUnderLimit(t *testing.T) {
	rl, _, waits := testLimiter(3)

	for i := 0; i < 3; i++ {
		admit(t, rl)
	}
	if len(*waits) != 0 {
		t.Errorf("waits = %v, want none", *waits)
	}
}

func TestRateLimitDelaysWhenWindowFull(t *testing.T) {
	rl, _, waits := testLimiter(3)

	for i := 0; i < 3; i++ {
		admit(t, rl)
	}
	admit(t, rl)

	if len(*waits) != 1 || (*waits)[0] != time.Minute {
		t.Errorf("waits = %v, want [1m]", *waits)
	}
}

func TestRateLimitWaitsUntilOldestExitsWindow(t *testing.T) {
	rl, now, waits := testLimiter(3)

	admit(t, rl)
	*now = now.Add(10 * time.Second)
	admit(t, rl)
	*now = now.Add(10 * time.Second)
	admit(t, rl)
	*now = now.Add(10 * time.Second)

	// Oldest admission is 30s old; the window frees up in another 30s.
	admit(t, rl)

	if len(*waits) != 1 || (*waits)[0] != 30*time.Second {
		t.Errorf("waits = %v, want [30s]", *waits)
	}
}

func TestRateLimitTrimsExpiredAdmissions(t *testing.T) {
	rl, now, waits := testLimiter(2)

	admit(t, rl)
	admit(t, rl)
	*now = now.Add(61 * time.Second)
	admit(t, rl)

	if len(*waits) != 0 {
		t.Errorf("waits = %v, want none after window passed", *waits)
	}
	if len(rl.admissions) != 1 {
		t.Errorf("retained admissions = %d, want 1", len(rl.admissions))
	}
}

func TestRateLimitRecordsOneAdmissionPerCall(t *testing.T) {
	rl, _, _ := testLimiter(10)

	for i := 0; i < 4; i++ {
		admit(t, rl)
	}
	if len(rl.admissions) != 4 {
		t.Errorf("admissions = %d, want 4", len(rl.admissions))
	}
}

func TestRateLimitOnWaitHook(t *testing.T) {
	rl, _, _ := testLimiter(1)

	var observed []time.Duration
	rl.OnWait = func(d time.Duration) { observed = append(observed, d) }

	admit(t, rl)
	admit(t, rl)

	if len(observed) != 1 || observed[0] != time.Minute {
		t.Errorf("OnWait observations = %v, want [1m]", observed)
	}
}

func TestRateLimitInterruptedWait(t *testing.T) {
	rl, _, _ := testLimiter(1)
	rl.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	admit(t, rl)
	_, err := rl.InterceptRequest(context.Background(), NewRequest("http://example.com"))
	if err == nil {
		t.Fatal("expected error from interrupted wait")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want wrapped context.Canceled", err)
	}
	if IsRetryable(err) {
		t.Error("interrupted wait must be non-retryable")
	}
}

func TestRateLimitDefaultLimit(t *testing.T) {
	rl := NewRateLimitInterceptor(0)
	if rl.maxPerMinute != DefaultMaxPerMinute {
		t.Errorf("maxPerMinute = %d, want %d", rl.maxPerMinute, DefaultMaxPerMinute)
	}
}

func TestRateLimitResponsePassThrough(t *testing.T) {
	rl := NewRateLimitInterceptor(1)
	dec, err := rl.InterceptResponse(context.Background(), NewRequest("http://example.com"), 500, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dec.Decision != Proceed {
		t.Errorf("decision = %v, want Proceed", dec.Decision)
	}
}
