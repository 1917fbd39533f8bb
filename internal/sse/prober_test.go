package sse

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestProbePingsEveryChannel(t *testing.T) {
	r := NewRegistry(testLogger())
	p := NewProber(r, testLogger())

	a := &stubTransport{}
	b := &stubTransport{}
	r.Open(1, a.send)
	r.Open(2, b.send)

	p.probe()

	for name, tr := range map[string]*stubTransport{"a": a, "b": b} {
		if !strings.Contains(tr.lastFrame(), "event: ping") {
			t.Errorf("channel %s frame = %q, want ping", name, tr.lastFrame())
		}
	}
}

func TestProbePrunesDeadChannel(t *testing.T) {
	r := NewRegistry(testLogger())
	p := NewProber(r, testLogger())

	healthy := &stubTransport{}
	dead := &stubTransport{}
	r.Open(1, healthy.send)
	r.Open(1, dead.send)
	dead.setFail(true)

	p.probe()

	if got := r.CountFor(1); got != 1 {
		t.Errorf("CountFor(1) = %d, want only the healthy channel left", got)
	}
	if !strings.Contains(healthy.lastFrame(), "event: ping") {
		t.Error("healthy channel missed the ping")
	}
}

func TestProberStartStop(t *testing.T) {
	r := NewRegistry(testLogger())
	p := NewProber(r, testLogger())
	p.interval = 5 * time.Millisecond

	tr := &stubTransport{}
	r.Open(1, tr.send)

	p.Start(context.Background())
	deadline := time.After(time.Second)
	for tr.frameCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("prober never ticked")
		case <-time.After(time.Millisecond):
		}
	}
	p.Stop()

	// No more pings after Stop.
	n := tr.frameCount()
	time.Sleep(20 * time.Millisecond)
	if tr.frameCount() != n {
		t.Error("prober kept ticking after Stop")
	}
}
