package systems

import (
	"errors"
	"sync"

	"github.com/spaghettifunk/rendergraph/engine/core"
)

var (
	ErrNoWorkers           = errors.New("attempting to create worker pool with less than 1 worker")
	ErrNegativeChannelSize = errors.New("attempting to create worker pool with a negative channel size")
	ErrJobSystemShutdown   = errors.New("job system is shut down")
)

// JobTask is one unit of work. OnFailure and OnComplete run on the worker
// after Run returns.
type JobTask struct {
	Name       string
	Run        func() error
	OnFailure  func(err error)
	OnComplete func()
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan JobTask
	wg         sync.WaitGroup

	mu       sync.Mutex
	shutdown bool
}

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan JobTask, channelSize),
	}
	js.start()
	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job JobTask) {
	if err := job.Run(); err != nil {
		core.LogError("job %s: %s", job.Name, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

// Shutdown stops accepting jobs, then waits for the queued ones to finish.
// Calling it again is a no-op.
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.shutdown {
		js.mu.Unlock()
		return nil
	}
	js.shutdown = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}

// Submit queues the job, blocking while the queue is full.
func (js *JobSystem) Submit(jt JobTask) error {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.shutdown {
		return ErrJobSystemShutdown
	}
	js.jobQueue <- jt
	return nil
}

// TrySubmit queues the job unless the queue is full or shut down.
func (js *JobSystem) TrySubmit(jt JobTask) bool {
	js.mu.Lock()
	defer js.mu.Unlock()
	if js.shutdown {
		return false
	}
	select {
	case js.jobQueue <- jt:
		return true
	default:
		return false
	}
}
