package profiler

import (
	"log"
	"runtime"
	"time"
)

// Stats is one reporting interval's worth of measurements.
type Stats struct {
	FPS         float64 // rendered frames per second
	TPS         float64 // fixed-rate ticks per second
	HeapMB      float64 // live heap
	AllocRateMB float64 // heap allocation rate in MB/s
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64 // longest GC pause within the interval
	SysMB       float64
}

// Profiler tracks frame rate, tick rate and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	tickCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - interval: how often stats are reported; values <= 0 default to 1 second
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// CountTick records one fixed-rate engine tick.
func (p *Profiler) CountTick() {
	p.tickCount++
}

// Frame should be called once per rendered frame.
// Logs performance statistics when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were logged this frame, false otherwise
func (p *Profiler) Frame() bool {
	return p.frame(time.Now())
}

// Last returns the statistics of the most recently completed interval.
//
// Returns:
//   - Stats: zero until the first interval has elapsed
func (p *Profiler) Last() Stats {
	return p.last
}

func (p *Profiler) frame(now time.Time) bool {
	p.frameCount++
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	runtime.ReadMemStats(&p.memStats)

	s := Stats{
		FPS:     float64(p.frameCount) / seconds,
		TPS:     float64(p.tickCount) / seconds,
		HeapMB:  float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(p.memStats.Sys) / 1024 / 1024,
		GCCount: p.memStats.NumGC,
	}
	s.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / seconds

	if s.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		s.LastPauseUs = p.memStats.PauseNs[(s.GCCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	log.Printf("[Profiler] FPS: %.2f | TPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		s.FPS, s.TPS, s.HeapMB, s.AllocRateMB, s.GCCount, s.LastPauseUs, s.MaxPauseUs, s.SysMB)

	p.last = s
	p.frameCount = 0
	p.tickCount = 0
	p.lastTime = now
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
