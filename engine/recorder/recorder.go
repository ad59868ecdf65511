// Package recorder writes captured frames to disk as a BMP sequence.
package recorder

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/bmp"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/containers"
	"github.com/spaghettifunk/rendergraph/engine/core"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/passes"
	"github.com/spaghettifunk/rendergraph/engine/systems"
)

const (
	queueSize     = 8
	writers       = 2
	dumpFrameName = "frame.bmp"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported frame format")
	ErrAlreadyRecording  = errors.New("recorder already running")
)

type encodedFrame struct {
	number uint64
	img    *image.RGBA
}

// Recorder is a passes.FrameSink. Frames are converted on the render thread
// and written by a pool of writers; when the writers fall behind the oldest
// queued frames are dropped. In dump_frame mode a single writer keeps
// overwriting the same file.
type Recorder struct {
	cfg config.RecorderConfig
	now func() time.Time

	mu        sync.Mutex
	recording bool
	session   string
	dir       string
	last      time.Time
	next      uint64
	queue     *containers.RingQueue[encodedFrame]
	dropped   uint64
	written   uint64

	jobs *systems.JobSystem
}

func New(cfg config.RecorderConfig) *Recorder {
	size := queueSize
	if cfg.DumpFrame {
		size = 1
	}
	return &Recorder{
		cfg:   cfg,
		now:   time.Now,
		queue: containers.NewRingQueue[encodedFrame](size),
	}
}

// Start opens a new session directory under the output path and starts the
// writer.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return ErrAlreadyRecording
	}

	session := uuid.NewString()
	dir := filepath.Join(r.cfg.OutputPath, session)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create recording directory: %w", err)
	}
	workers := writers
	if r.cfg.DumpFrame {
		workers = 1
	}
	jobs, err := systems.NewJobSystem(workers, queueSize)
	if err != nil {
		return err
	}

	r.session = session
	r.dir = dir
	r.last = time.Time{}
	r.next = 0
	r.dropped = 0
	r.written = 0
	r.jobs = jobs
	r.recording = true

	core.LogInfo("recording to %s", dir)
	return nil
}

// Stop flushes queued frames and stops the writer. Stopping an idle recorder
// is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil
	}
	r.recording = false
	jobs := r.jobs
	r.mu.Unlock()

	if err := jobs.Shutdown(); err != nil {
		return err
	}

	r.mu.Lock()
	core.LogInfo("recording %s stopped: %d frames written, %d dropped", r.session, r.written, r.dropped)
	r.mu.Unlock()
	return nil
}

// Toggle starts an idle recorder and stops a running one.
func (r *Recorder) Toggle() error {
	if r.Recording() {
		return r.Stop()
	}
	return r.Start()
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Dir is the directory of the current or last session.
func (r *Recorder) Dir() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dir
}

// WriteFrame queues a copy of the frame unless it arrives sooner than the
// configured frame rate allows.
func (r *Recorder) WriteFrame(frame passes.CapturedFrame) error {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil
	}
	now := r.now()
	if r.cfg.FrameRate > 0 && !r.last.IsZero() {
		interval := time.Duration(float64(time.Second) / r.cfg.FrameRate)
		if now.Sub(r.last) < interval {
			r.mu.Unlock()
			return nil
		}
	}
	r.mu.Unlock()

	img, err := toRGBA(frame)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil
	}
	r.last = now
	number := r.next
	r.next++
	if _, evicted := r.queue.Push(encodedFrame{number: number, img: img}); evicted {
		// The job queued for the evicted frame writes this one instead.
		r.dropped++
		return nil
	}
	job := systems.JobTask{
		Name: fmt.Sprintf("write frame %d", number),
		Run:  r.writeNext,
	}
	if !r.jobs.TrySubmit(job) {
		core.LogWarn("recorder: writer queue full, frame %d stays queued", number)
	}
	return nil
}

// writeNext writes the oldest queued frame.
func (r *Recorder) writeNext() error {
	r.mu.Lock()
	f, err := r.queue.Dequeue()
	dir := r.dir
	r.mu.Unlock()
	if err != nil {
		return nil
	}
	if err := r.writeFile(dir, f); err != nil {
		return fmt.Errorf("frame %d: %w", f.number, err)
	}
	r.mu.Lock()
	r.written++
	r.mu.Unlock()
	return nil
}

func (r *Recorder) writeFile(dir string, f encodedFrame) error {
	name := fmt.Sprintf("frame_%06d.bmp", f.number)
	if r.cfg.DumpFrame {
		name = dumpFrameName
	}
	path := filepath.Join(dir, name)

	// Write next to the target and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(dir, ".frame-*.bmp")
	if err != nil {
		return err
	}
	if err := bmp.Encode(tmp, f.img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// toRGBA copies the frame pixels; the source buffer is reused by the next
// frame.
func toRGBA(frame passes.CapturedFrame) (*image.RGBA, error) {
	w, h := int(frame.Extent.Width), int(frame.Extent.Height)
	if len(frame.Pixels) < w*h*4 {
		return nil, fmt.Errorf("frame %dx%d has %d bytes", w, h, len(frame.Pixels))
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	switch frame.Format {
	case metadata.FormatR8G8B8A8Unorm:
		copy(img.Pix, frame.Pixels[:w*h*4])
	case metadata.FormatB8G8R8A8Unorm, metadata.FormatB8G8R8A8Srgb:
		for i := 0; i < w*h*4; i += 4 {
			img.Pix[i+0] = frame.Pixels[i+2]
			img.Pix[i+1] = frame.Pixels[i+1]
			img.Pix[i+2] = frame.Pixels[i+0]
			img.Pix[i+3] = frame.Pixels[i+3]
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, frame.Format)
	}
	return img, nil
}
