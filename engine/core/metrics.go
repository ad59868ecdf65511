package core

import (
	"time"

	"github.com/spaghettifunk/rendergraph/engine/containers"
)

const AVG_COUNT = 30

// Metrics keeps a rolling frame time average and a frames-per-second counter.
type Metrics struct {
	frameTimes  *containers.RingQueue[time.Duration]
	total       time.Duration
	avg         time.Duration
	frames      int
	accumulated time.Duration
	fps         float64
	frameCount  uint64
}

func NewMetrics() *Metrics {
	return &Metrics{
		frameTimes: containers.NewRingQueue[time.Duration](AVG_COUNT),
	}
}

func (m *Metrics) Update(frameElapsed time.Duration) {
	if evicted, ok := m.frameTimes.Push(frameElapsed); ok {
		m.total -= evicted
	}
	m.total += frameElapsed
	m.avg = m.total / time.Duration(m.frameTimes.Len())

	m.accumulated += frameElapsed
	m.frames++
	if m.accumulated >= time.Second {
		m.fps = float64(m.frames) / m.accumulated.Seconds()
		m.accumulated = 0
		m.frames = 0
	}
	m.frameCount++
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average over the last AVG_COUNT frames.
func (m *Metrics) FrameTime() time.Duration {
	return m.avg
}

func (m *Metrics) FrameCount() uint64 {
	return m.frameCount
}
