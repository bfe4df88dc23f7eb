package collab

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateOrGetIdempotent(t *testing.T) {
	r := NewRegistry(testLogger(), time.Minute)

	rm := r.CreateOrGet("r1")
	rm.Code = "print(1)"
	rm.Language = "python"

	again := r.CreateOrGet("r1")
	if again != rm {
		t.Fatal("expected the same room instance")
	}
	if again.Code != "print(1)" || again.Language != "python" {
		t.Errorf("repeat CreateOrGet reset state: code=%q language=%q", again.Code, again.Language)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 room, got %d", r.Len())
	}
}

func TestGetUnknownRoom(t *testing.T) {
	r := NewRegistry(testLogger(), time.Minute)
	if _, ok := r.Get("never-joined"); ok {
		t.Error("unknown room should not resolve")
	}
}

func TestNewRoomDefaults(t *testing.T) {
	r := NewRegistry(testLogger(), time.Minute)
	rm := r.CreateOrGet("fresh")
	if rm.Code != "" {
		t.Errorf("new room code = %q, want empty", rm.Code)
	}
	if rm.Language != DefaultLanguage {
		t.Errorf("new room language = %q, want %q", rm.Language, DefaultLanguage)
	}
	if rm.Participants == nil || rm.Cursors == nil {
		t.Error("member maps not initialized")
	}
	if rm.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
}

func TestEvictionFiresWhenStillEmpty(t *testing.T) {
	r := NewRegistry(testLogger(), 15*time.Millisecond)
	r.CreateOrGet("r1")

	fired := make(chan string, 1)
	r.ScheduleEviction("r1", func(id string) { fired <- id })

	select {
	case id := <-fired:
		if id != "r1" {
			t.Fatalf("eviction fired for %q", id)
		}
	case <-time.After(time.Second):
		t.Fatal("eviction never fired")
	}

	if !r.EvictIfEmpty("r1") {
		t.Fatal("empty room past its grace period should be evicted")
	}
	if _, ok := r.Get("r1"); ok {
		t.Error("room still present after eviction")
	}
}

func TestRejoinDuringGraceCancelsEviction(t *testing.T) {
	r := NewRegistry(testLogger(), 15*time.Millisecond)
	rm := r.CreateOrGet("r1")
	rm.Code = "const x = 1"

	fired := make(chan string, 1)
	r.ScheduleEviction("r1", func(id string) { fired <- id })

	// Rejoin before the timer fires.
	r.CreateOrGet("r1")

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	if r.EvictIfEmpty("r1") {
		t.Fatal("room rejoined during grace must not be evicted")
	}
	got, ok := r.Get("r1")
	if !ok {
		t.Fatal("room missing after cancelled eviction")
	}
	if got.Code != "const x = 1" {
		t.Errorf("room state not preserved: code=%q", got.Code)
	}
}

func TestStaleTimerFromSupersededScheduleIsIgnored(t *testing.T) {
	r := NewRegistry(testLogger(), time.Hour)
	r.CreateOrGet("r1")

	// First schedule, then a rejoin and a second emptying re-schedule.
	r.ScheduleEviction("r1", func(string) {})
	r.CreateOrGet("r1")
	r.ScheduleEviction("r1", func(string) {})

	// A check arriving before the live deadline must not evict.
	if r.EvictIfEmpty("r1") {
		t.Fatal("evicted before the pending deadline")
	}
	if _, ok := r.Get("r1"); !ok {
		t.Error("room missing")
	}
}
