package vkframe

import (
	"time"

	"github.com/loov/hrtime"
)

// DefaultTargetFPS is the frame rate a FramePacer throttles to unless told otherwise
const DefaultTargetFPS = 60

const pacerSamples = 5

// FramePacer measures frame times and can throttle the render loop to a
// target rate. It is advisory only, frame synchronization never depends on it.
type FramePacer struct {
	now   func() time.Duration
	sleep func(time.Duration)

	target time.Duration
	last   time.Duration
	start  bool

	samples [pacerSamples]float64
	count   int
	next    int
}

// NewFramePacer creates a pacer using the high resolution clock
func NewFramePacer() *FramePacer {
	return newFramePacer(hrtime.Now, time.Sleep)
}

func newFramePacer(now func() time.Duration, sleep func(time.Duration)) *FramePacer {
	p := &FramePacer{now: now, sleep: sleep}
	p.SetTargetFPS(DefaultTargetFPS)
	return p
}

// SetTargetFPS sets the rate Throttle aims for, values below one restore the default
func (p *FramePacer) SetTargetFPS(fps float64) {
	if fps < 1 {
		fps = DefaultTargetFPS
	}
	p.target = time.Duration(float64(time.Second) / fps)
}

// Tick marks the start of a frame and returns the seconds elapsed since the
// previous tick, zero on the first call
func (p *FramePacer) Tick() float64 {
	now := p.now()
	if !p.start {
		p.start = true
		p.last = now
		return 0
	}
	dt := (now - p.last).Seconds()
	p.last = now

	p.samples[p.next] = dt
	p.next = (p.next + 1) % pacerSamples
	if p.count < pacerSamples {
		p.count++
	}
	return dt
}

// FPS is the frame rate averaged over the last few ticks
func (p *FramePacer) FPS() float64 {
	if p.count == 0 {
		return 0
	}
	var total float64
	for i := 0; i < p.count; i++ {
		total += p.samples[i]
	}
	if total <= 0 {
		return 0
	}
	return float64(p.count) / total
}

// Throttle sleeps for whatever is left of the frame budget since the last tick
func (p *FramePacer) Throttle() {
	if !p.start {
		return
	}
	elapsed := p.now() - p.last
	if elapsed < p.target {
		p.sleep(p.target - elapsed)
	}
}
