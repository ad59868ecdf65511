package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/spaghettifunk/rendergraph/engine/config"
	"github.com/spaghettifunk/rendergraph/engine/renderer/metadata"
	"github.com/spaghettifunk/rendergraph/engine/renderer/passes"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func bgraFrame(w, h int, b, g, r byte) passes.CapturedFrame {
	pixels := make([]byte, w*h*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i+0] = b
		pixels[i+1] = g
		pixels[i+2] = r
		pixels[i+3] = 0xff
	}
	return passes.CapturedFrame{
		Extent: metadata.Extent{Width: uint32(w), Height: uint32(h)},
		Format: metadata.FormatB8G8R8A8Unorm,
		Pixels: pixels,
	}
}

func newRecorder(t *testing.T, cfg config.RecorderConfig) (*Recorder, *fakeClock) {
	t.Helper()
	cfg.OutputPath = t.TempDir()
	r := New(cfg)
	clock := &fakeClock{t: time.Unix(1000, 0)}
	r.now = clock.now
	return r, clock
}

func bmpFiles(t *testing.T, dir string) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.bmp"))
	require.NoError(t, err)
	for i, f := range files {
		files[i] = filepath.Base(f)
	}
	return files
}

func TestIdleRecorderIgnoresFrames(t *testing.T) {
	r, _ := newRecorder(t, config.RecorderConfig{FrameRate: 30})
	assert.False(t, r.Recording())
	assert.NoError(t, r.WriteFrame(bgraFrame(2, 2, 1, 2, 3)))
	assert.NoError(t, r.Stop())
	assert.Empty(t, r.Dir())
}

func TestRecordsThrottledSequence(t *testing.T) {
	r, clock := newRecorder(t, config.RecorderConfig{FrameRate: 10})
	require.NoError(t, r.Start())
	require.True(t, r.Recording())

	for i := 0; i < 5; i++ {
		require.NoError(t, r.WriteFrame(bgraFrame(4, 3, 0x10, 0x20, 0x30)))
		clock.advance(50 * time.Millisecond)
	}
	require.NoError(t, r.Stop())
	assert.False(t, r.Recording())

	assert.Equal(t, []string{"frame_000000.bmp", "frame_000001.bmp", "frame_000002.bmp"}, bmpFiles(t, r.Dir()))

	f, err := os.Open(filepath.Join(r.Dir(), "frame_000000.bmp"))
	require.NoError(t, err)
	defer f.Close()
	img, err := bmp.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
	cr, cg, cb, ca := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0x30), cr>>8)
	assert.Equal(t, uint32(0x20), cg>>8)
	assert.Equal(t, uint32(0x10), cb>>8)
	assert.Equal(t, uint32(0xff), ca>>8)
}

func TestDumpFrameKeepsLatestOnly(t *testing.T) {
	r, clock := newRecorder(t, config.RecorderConfig{DumpFrame: true})
	require.NoError(t, r.Start())
	for i := 0; i < 4; i++ {
		require.NoError(t, r.WriteFrame(bgraFrame(2, 2, byte(i), 0, 0)))
		clock.advance(time.Millisecond)
	}
	require.NoError(t, r.Stop())
	assert.Equal(t, []string{dumpFrameName}, bmpFiles(t, r.Dir()))
}

func TestSessionsUseSeparateDirectories(t *testing.T) {
	r, _ := newRecorder(t, config.RecorderConfig{})
	require.NoError(t, r.Toggle())
	first := r.Dir()
	assert.ErrorIs(t, r.Start(), ErrAlreadyRecording)
	require.NoError(t, r.Toggle())
	assert.False(t, r.Recording())

	require.NoError(t, r.Start())
	assert.NotEqual(t, first, r.Dir())
	assert.Equal(t, filepath.Dir(first), filepath.Dir(r.Dir()))
	require.NoError(t, r.Stop())
}

func TestUnsupportedFormat(t *testing.T) {
	r, _ := newRecorder(t, config.RecorderConfig{})
	require.NoError(t, r.Start())
	defer r.Stop()

	frame := passes.CapturedFrame{
		Extent: metadata.Extent{Width: 1, Height: 1},
		Format: metadata.FormatR16G16B16A16Sfloat,
		Pixels: make([]byte, 8),
	}
	assert.ErrorIs(t, r.WriteFrame(frame), ErrUnsupportedFormat)

	short := bgraFrame(2, 2, 0, 0, 0)
	short.Pixels = short.Pixels[:3]
	assert.Error(t, r.WriteFrame(short))
}

func TestRGBAFramesAreCopied(t *testing.T) {
	frame := passes.CapturedFrame{
		Extent: metadata.Extent{Width: 1, Height: 1},
		Format: metadata.FormatR8G8B8A8Unorm,
		Pixels: []byte{1, 2, 3, 4},
	}
	img, err := toRGBA(frame)
	require.NoError(t, err)
	frame.Pixels[0] = 9
	assert.Equal(t, []uint8{1, 2, 3, 4}, img.Pix)
}
