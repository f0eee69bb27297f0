package scraper

import (
	"context"
	"testing"
	"time"
)

func TestDelayPolicy_Next(t *testing.T) {
	if got := (DelayPolicy{}).Next(); got != 0 {
		t.Errorf("zero policy Next() = %v, want 0", got)
	}

	p := DelayPolicy{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	for i := 0; i < 100; i++ {
		d := p.Next()
		if d < p.Min || d > p.Max {
			t.Fatalf("Next() = %v, outside [%v, %v]", d, p.Min, p.Max)
		}
	}

	fixed := DelayPolicy{Min: 5 * time.Millisecond, Max: 5 * time.Millisecond}
	if got := fixed.Next(); got != 5*time.Millisecond {
		t.Errorf("fixed Next() = %v, want 5ms", got)
	}
}

func TestDelayPolicy_WaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := DelayPolicy{Min: time.Minute, Max: time.Minute}.Wait(ctx)
	if err == nil {
		t.Error("Wait() on a cancelled context should return an error")
	}
	if time.Since(start) > time.Second {
		t.Error("Wait() did not return promptly on cancellation")
	}
}

func TestDelayPolicy_WaitZero(t *testing.T) {
	if err := (DelayPolicy{}).Wait(context.Background()); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}
