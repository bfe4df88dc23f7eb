package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinWindow(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d denied inside the budget", i)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("request over budget allowed")
	}
	// Each key gets its own window.
	if !l.Allow("5.6.7.8") {
		t.Error("other client affected")
	}
}

func TestWindowResets(t *testing.T) {
	l := New(1, 10*time.Millisecond)
	if !l.Allow("k") {
		t.Fatal("first request denied")
	}
	if l.Allow("k") {
		t.Fatal("second request allowed in window")
	}
	time.Sleep(15 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("request denied after the window expired")
	}
}

func TestMiddlewareReturns429(t *testing.T) {
	l := New(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d, want 429", rec.Code)
	}
}
