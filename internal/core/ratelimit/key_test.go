package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSource returns a fixed per-key ceiling, or an error.
type fakeSource struct {
	limits map[string]*int
	err    error
}

func (s *fakeSource) RateLimitFor(ctx context.Context, key string) (*int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.limits[key], nil
}

func intPtr(v int) *int { return &v }

func TestKeyLimiter_SlidingWindow(t *testing.T) {
	src := &fakeSource{limits: map[string]*int{"k": intPtr(2)}}
	l := NewKeyLimiter(src, 10, time.Second)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	l.now = func() time.Time { return now }

	ctx := context.Background()
	if !l.Check(ctx, "k") {
		t.Error("first request should pass")
	}
	if !l.Check(ctx, "k") {
		t.Error("second request should pass")
	}
	if l.Check(ctx, "k") {
		t.Error("third request inside the window should be denied")
	}

	// Slide past the window: old timestamps are pruned.
	now = base.Add(1100 * time.Millisecond)
	if !l.Check(ctx, "k") {
		t.Error("request after the window slides should pass")
	}
}

func TestKeyLimiter_UnlimitedKeyRecordsNothing(t *testing.T) {
	src := &fakeSource{limits: map[string]*int{}} // nil override = unlimited
	l := NewKeyLimiter(src, 1, time.Second)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		if !l.Check(ctx, "free") {
			t.Fatalf("unlimited key denied on request %d", i)
		}
	}
	if len(l.requests["free"]) != 0 {
		t.Error("unlimited keys must not accumulate timestamps")
	}
}

func TestKeyLimiter_LookupFailureFallsBackToDefault(t *testing.T) {
	src := &fakeSource{err: errors.New("catalog down")}
	l := NewKeyLimiter(src, 1, time.Second)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	if !l.Check(ctx, "k") {
		t.Error("first request under the default ceiling should pass")
	}
	if l.Check(ctx, "k") {
		t.Error("second request should be denied by the default ceiling")
	}
}

func TestKeyLimiter_IndependentPerKey(t *testing.T) {
	src := &fakeSource{limits: map[string]*int{
		"a": intPtr(1),
		"b": intPtr(1),
	}}
	l := NewKeyLimiter(src, 10, time.Second)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	if !l.Check(ctx, "a") {
		t.Error("key a should pass")
	}
	if !l.Check(ctx, "b") {
		t.Error("key b has its own window")
	}
	if l.Check(ctx, "a") {
		t.Error("key a should now be exhausted")
	}
}
