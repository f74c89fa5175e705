package supervisor

import (
	"testing"
	"time"
)

func TestAlwaysRestartDefaults(t *testing.T) {
	p := AlwaysRestart{}
	if !p.ShouldRestart(100, time.Hour) {
		t.Fatalf("always policy must always restart")
	}
	if got := p.DelayBeforeRestart(); got != 2*time.Second {
		t.Fatalf("default delay = %v, want 2s", got)
	}
}

func TestAlwaysRestartCustomDelay(t *testing.T) {
	p := AlwaysRestart{Delay: 50 * time.Millisecond}
	if got := p.DelayBeforeRestart(); got != 50*time.Millisecond {
		t.Fatalf("delay = %v", got)
	}
}

func TestBoundedRestartGivesUp(t *testing.T) {
	p := BoundedRestart{Max: 3, Window: time.Minute}
	if !p.ShouldRestart(1, time.Second) {
		t.Fatalf("first failure should restart")
	}
	if !p.ShouldRestart(2, time.Second) {
		t.Fatalf("second failure should restart")
	}
	if p.ShouldRestart(3, time.Second) {
		t.Fatalf("third failure inside window should give up")
	}
}

func TestBoundedRestartWindowExpired(t *testing.T) {
	p := BoundedRestart{Max: 3, Window: time.Minute}
	if !p.ShouldRestart(5, 2*time.Minute) {
		t.Fatalf("failures outside window should still restart")
	}
}

func TestBoundedRestartZeroMaxMeansAlways(t *testing.T) {
	p := BoundedRestart{}
	if !p.ShouldRestart(1000, time.Second) {
		t.Fatalf("zero max should never give up")
	}
	if got := p.DelayBeforeRestart(); got != 2*time.Second {
		t.Fatalf("default delay = %v, want 2s", got)
	}
}
