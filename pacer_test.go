package vkframe

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	now   time.Duration
	slept []time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now += d
}

func TestFramePacerTick(t *testing.T) {
	clock := &fakeClock{}
	p := newFramePacer(clock.Now, clock.Sleep)

	if dt := p.Tick(); dt != 0 {
		t.Errorf("first tick %v, expected 0", dt)
	}
	if p.FPS() != 0 {
		t.Errorf("fps %v before any frame", p.FPS())
	}

	for i := 0; i < 10; i++ {
		clock.now += 20 * time.Millisecond
		dt := p.Tick()
		if math.Abs(dt-0.020) > 1e-9 {
			t.Fatalf("tick %d: dt %v", i, dt)
		}
	}
	if math.Abs(p.FPS()-50) > 1e-6 {
		t.Errorf("fps %v, expected 50", p.FPS())
	}
}

func TestFramePacerThrottle(t *testing.T) {
	clock := &fakeClock{}
	p := newFramePacer(clock.Now, clock.Sleep)
	p.SetTargetFPS(100)

	p.Throttle()
	if len(clock.slept) != 0 {
		t.Error("throttled before the first tick")
	}

	p.Tick()
	clock.now += 4 * time.Millisecond
	p.Throttle()
	if len(clock.slept) != 1 || clock.slept[0] != 6*time.Millisecond {
		t.Errorf("slept %v, expected 6ms", clock.slept)
	}

	p.Tick()
	clock.now += 15 * time.Millisecond
	p.Throttle()
	if len(clock.slept) != 1 {
		t.Error("slept after an over budget frame")
	}
}

func TestFramePacerDefaultTarget(t *testing.T) {
	p := newFramePacer(func() time.Duration { return 0 }, func(time.Duration) {})
	p.SetTargetFPS(0)
	if p.target != time.Second/DefaultTargetFPS {
		t.Errorf("target %v", p.target)
	}
}
