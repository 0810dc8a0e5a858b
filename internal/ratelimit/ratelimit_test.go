package ratelimit

import (
	"testing"
	"time"
)

func TestBurstThenDeny(t *testing.T) {
	l := NewLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("message %d should pass within burst", i)
		}
	}
	if l.Allow() {
		t.Error("message beyond burst should be denied")
	}
}

func TestRefill(t *testing.T) {
	l := NewLimiter(100, 1)

	if !l.Allow() {
		t.Fatal("first message should pass")
	}
	if l.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(50 * time.Millisecond)
	if !l.Allow() {
		t.Error("bucket should have refilled")
	}
}

func TestAllowN(t *testing.T) {
	l := NewLimiter(1, 10)

	if !l.AllowN(10) {
		t.Fatal("full burst should pass")
	}
	if l.AllowN(1) {
		t.Error("bucket should be drained")
	}
}
