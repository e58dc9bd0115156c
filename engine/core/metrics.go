package core

import (
	"sync"

	"github.com/spaghettifunk/oberon/engine/containers"
)

const AVG_COUNT = 30

// Metrics keeps a rolling window of frame times.
type Metrics struct {
	mu                 sync.Mutex
	window             *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
	totalFrames        uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		window: containers.NewRingQueue[float64](AVG_COUNT),
	}
}

// Update records one frame that took frameElapsedTime seconds.
func (m *Metrics) Update(frameElapsedTime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameMS := frameElapsedTime * 1000.0
	if m.window.IsFull() {
		_, _ = m.window.Dequeue()
	}
	_ = m.window.Enqueue(frameMS)

	if m.window.IsFull() {
		sum := 0.0
		m.window.Each(func(v float64) {
			sum += v
		})
		m.msAvg = sum / float64(m.window.Len())
	}

	// Frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	m.frames++
	m.totalFrames++
}

func (m *Metrics) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msAvg
}

func (m *Metrics) TotalFrames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalFrames
}

func (m *Metrics) Frame() (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps, m.msAvg
}
