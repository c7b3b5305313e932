package cache

import (
	"testing"
	"time"
)

func TestMemoryHitWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(Options{Now: clock.Now})

	if err := m.Put("us", []byte("payload"), 10*time.Minute); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clock.Advance(9 * time.Minute)
	got, ok, err := m.Get("us")
	if err != nil || !ok || string(got) != "payload" {
		t.Fatalf("expected hit, got %q ok=%v err=%v", got, ok, err)
	}
}

func TestMemoryExpiresAtTTLBoundary(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory(Options{Now: clock.Now})

	_ = m.Put("us", []byte("payload"), time.Minute)
	clock.Advance(time.Minute)

	if _, ok, _ := m.Get("us"); ok {
		t.Fatalf("expected miss at ttl boundary")
	}
	if m.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", m.Len())
	}
}

func TestMemoryPutCopiesValue(t *testing.T) {
	m := NewMemory(Options{})
	buf := []byte("abc")
	_ = m.Put("k", buf, time.Minute)
	buf[0] = 'z'

	got, _, _ := m.Get("k")
	if string(got) != "abc" {
		t.Fatalf("stored value mutated: %q", got)
	}
}

func TestKeyIncludesQuery(t *testing.T) {
	if got := Key("us", ""); got != "us" {
		t.Fatalf("Key without query = %q", got)
	}
	if got := Key("in", " AI Chips "); got != "in|ai chips" {
		t.Fatalf("Key with query = %q", got)
	}
}
