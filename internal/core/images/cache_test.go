package images

import (
	"testing"
	"time"
)

func TestResponseCache_PutGet(t *testing.T) {
	c := NewResponseCache(8, time.Minute)

	resp := &ImageResponse{Filename: "a.png", Hash: "abc"}
	c.Put("a.png", resp)

	got, ok := c.Get("a.png")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Hash != "abc" {
		t.Errorf("expected hash abc, got %s", got.Hash)
	}
}

func TestResponseCache_Miss(t *testing.T) {
	c := NewResponseCache(8, time.Minute)
	if _, ok := c.Get("absent.png"); ok {
		t.Error("expected cache miss")
	}
}

func TestResponseCache_Invalidate(t *testing.T) {
	c := NewResponseCache(8, time.Minute)
	c.Put("a.png", &ImageResponse{Filename: "a.png"})
	c.Invalidate("a.png")
	if _, ok := c.Get("a.png"); ok {
		t.Error("expected entry to be gone after invalidation")
	}
}

func TestResponseCache_TTLExpiry(t *testing.T) {
	c := NewResponseCache(8, 20*time.Millisecond)
	c.Put("a.png", &ImageResponse{Filename: "a.png"})

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get("a.png"); ok {
		t.Error("expected entry to expire after TTL")
	}
}

func TestResponseCache_CapacityEviction(t *testing.T) {
	c := NewResponseCache(2, time.Minute)
	c.Put("a.png", &ImageResponse{Filename: "a.png"})
	c.Put("b.png", &ImageResponse{Filename: "b.png"})
	c.Put("c.png", &ImageResponse{Filename: "c.png"})

	// Oldest entry goes first.
	if _, ok := c.Get("a.png"); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if _, ok := c.Get("c.png"); !ok {
		t.Error("expected newest entry to survive")
	}
}
