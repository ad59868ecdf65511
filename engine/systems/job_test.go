package systems

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidates(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestShutdownRunsQueuedJobs(t *testing.T) {
	js, err := NewJobSystem(3, 16)
	require.NoError(t, err)

	var ran, completed, failed atomic.Int32
	boom := errors.New("boom")
	for i := 0; i < 10; i++ {
		fail := i%5 == 0
		require.NoError(t, js.Submit(JobTask{
			Name: "count",
			Run: func() error {
				ran.Add(1)
				if fail {
					return boom
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure: func(err error) {
				assert.ErrorIs(t, err, boom)
				failed.Add(1)
			},
		}))
	}
	require.NoError(t, js.Shutdown())

	assert.Equal(t, int32(10), ran.Load())
	assert.Equal(t, int32(8), completed.Load())
	assert.Equal(t, int32(2), failed.Load())
}

func TestSubmitAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())

	job := JobTask{Name: "late", Run: func() error { return nil }}
	assert.ErrorIs(t, js.Submit(job), ErrJobSystemShutdown)
	assert.False(t, js.TrySubmit(job))
}

func TestTrySubmitFullQueue(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, js.Submit(JobTask{Name: "block", Run: func() error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	noop := JobTask{Name: "noop", Run: func() error { return nil }}
	assert.True(t, js.TrySubmit(noop))
	assert.False(t, js.TrySubmit(noop))

	close(release)
	require.NoError(t, js.Shutdown())
}
