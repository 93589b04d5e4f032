package throttle

import (
	"testing"
	"time"
)

func TestNew_ZeroRateDisables(t *testing.T) {
	l := New(0)
	if d := l.Consume(1 << 20); d != 0 {
		t.Errorf("Consume() with zero rate = %v, want 0", d)
	}
}

func TestNew_NegativeRateDisables(t *testing.T) {
	l := New(-5)
	if d := l.Consume(1000); d != 0 {
		t.Errorf("Consume() with negative rate = %v, want 0", d)
	}
}

func TestNilLimiter(t *testing.T) {
	var l *Limiter
	if d := l.Consume(100); d != 0 {
		t.Errorf("Consume() on nil limiter = %v, want 0", d)
	}
}

func TestConsume_ZeroBytes(t *testing.T) {
	l := New(100)
	if d := l.Consume(0); d != 0 {
		t.Errorf("Consume(0) = %v, want 0", d)
	}
}

func TestConsume_ImposesDelayOverRate(t *testing.T) {
	l := New(100) // 100 bytes/sec

	// First consume within the instantaneous burst allowance returns ~0.
	first := l.Consume(50)
	if first > 50*time.Millisecond {
		t.Errorf("first Consume() delay = %v, want near 0", first)
	}

	// Consuming far more than the rate affords should yield a positive delay
	// proportional to the excess.
	second := l.Consume(1000)
	if second <= 0 {
		t.Errorf("second Consume() delay = %v, want > 0", second)
	}
}
