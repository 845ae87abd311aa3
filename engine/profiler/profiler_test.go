package profiler

import (
	"testing"
	"time"
)

func TestFrameReportsOncePerInterval(t *testing.T) {
	p := NewProfiler(time.Second)
	start := p.lastTime

	for i := 1; i < 30; i++ {
		p.CountTick()
		if p.frame(start.Add(time.Duration(i) * 10 * time.Millisecond)) {
			t.Fatalf("frame %d reported before the interval elapsed", i)
		}
	}
	p.CountTick()
	if !p.frame(start.Add(2 * time.Second)) {
		t.Fatal("frame did not report after the interval elapsed")
	}

	s := p.Last()
	if s.FPS != 15 || s.TPS != 15 {
		t.Errorf("Last\nhave FPS %v TPS %v\nwant FPS 15 TPS 15", s.FPS, s.TPS)
	}
	if p.frameCount != 0 || p.tickCount != 0 {
		t.Errorf("counters not reset: frames %d ticks %d", p.frameCount, p.tickCount)
	}
}

func TestNewProfilerDefaultInterval(t *testing.T) {
	if p := NewProfiler(0); p.updateInterval != time.Second {
		t.Errorf("updateInterval\nhave %v\nwant %v", p.updateInterval, time.Second)
	}
}
