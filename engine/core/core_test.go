package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusStopsAtFirstHandler(t *testing.T) {
	bus := NewEventBus()
	var calls []string
	first := func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, "first")
		return data.Data.U32[0] == 1
	}
	second := func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		calls = append(calls, "second")
		return true
	}
	require.True(t, bus.Register(EVENT_CODE_RESIZED, "l1", first))
	require.True(t, bus.Register(EVENT_CODE_RESIZED, "l2", second))
	assert.False(t, bus.Register(EVENT_CODE_RESIZED, "l1", first))

	ctx := EventContext{}
	ctx.Data.U32[0] = 1
	assert.True(t, bus.Fire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, []string{"first"}, calls)

	calls = nil
	assert.True(t, bus.Fire(EVENT_CODE_RESIZED, nil, EventContext{}))
	assert.Equal(t, []string{"first", "second"}, calls)

	assert.True(t, bus.Unregister(EVENT_CODE_RESIZED, "l2"))
	assert.False(t, bus.Fire(EVENT_CODE_RESIZED, nil, EventContext{}))
	assert.False(t, bus.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
}

func TestMetricsRollingAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(10 * time.Millisecond)
	}
	assert.Equal(t, 10*time.Millisecond, m.FrameTime())

	for i := 0; i < AVG_COUNT; i++ {
		m.Update(20 * time.Millisecond)
	}
	assert.Equal(t, 20*time.Millisecond, m.FrameTime())
	assert.Equal(t, uint64(2*AVG_COUNT), m.FrameCount())
	assert.Zero(t, m.FPS())

	// 300ms + 35*20ms crosses one second on the 65th frame.
	for i := 0; i < 5; i++ {
		m.Update(20 * time.Millisecond)
	}
	assert.InDelta(t, 65.0, m.FPS(), 0.001)
}

func TestClockElapsed(t *testing.T) {
	now := time.Unix(100, 0)
	c := &Clock{now: func() time.Time { return now }}
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	now = now.Add(250 * time.Millisecond)
	c.Update()
	assert.Equal(t, 250*time.Millisecond, c.Elapsed())

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.Equal(t, 250*time.Millisecond, c.Elapsed())
}
