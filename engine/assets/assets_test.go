package assets

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spirvHeader = []byte{0x03, 0x02, 0x23, 0x07}

func writeShader(t *testing.T, path string, words ...byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, append(append([]byte(nil), spirvHeader...), words...), 0o644))
}

func newManager(t *testing.T) (*AssetManager, string) {
	t.Helper()
	dir := t.TempDir()
	writeShader(t, filepath.Join(dir, "fxaa", "node.frag.spv"), 1, 0, 0, 0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fxaa", "node.frag"), []byte("void main() {}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("docs"), 0o644))

	am, err := NewAssetManager()
	require.NoError(t, err)
	require.NoError(t, am.Initialize(dir))
	t.Cleanup(func() { _ = am.Close() })
	return am, dir
}

func TestInitializeIndexesShaderTree(t *testing.T) {
	am, dir := newManager(t)

	info, ok := am.Lookup(filepath.Join(dir, "fxaa", "node.frag.spv"))
	require.True(t, ok)
	assert.Equal(t, AssetTypeShader, info.Type)

	info, ok = am.Lookup(filepath.Join(dir, "fxaa", "node.frag"))
	require.True(t, ok)
	assert.Equal(t, AssetTypeShaderSource, info.Type)

	_, ok = am.Lookup(filepath.Join(dir, "README"))
	assert.False(t, ok)
}

func TestLoadShaderCachesUntilChanged(t *testing.T) {
	am, dir := newManager(t)
	path := filepath.Join(dir, "fxaa", "node.frag.spv")

	data, err := am.LoadShader(path)
	require.NoError(t, err)
	assert.Len(t, data, 8)

	writeShader(t, path, 1, 0, 0, 0, 2, 0, 0, 0)
	select {
	case changed := <-am.Changes():
		assert.Equal(t, path, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}

	require.Eventually(t, func() bool {
		data, err := am.LoadShader(path)
		return err == nil && len(data) == 12
	}, 5*time.Second, 20*time.Millisecond)
}

func TestLoadShaderRejectsNonShaders(t *testing.T) {
	am, dir := newManager(t)
	_, err := am.LoadShader(filepath.Join(dir, "fxaa", "node.frag"))
	assert.Error(t, err)
	_, err = am.LoadShader(filepath.Join(dir, "missing", "node.vert.spv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCloseIsIdempotent(t *testing.T) {
	am, _ := newManager(t)
	require.NoError(t, am.Close())
	require.NoError(t, am.Close())
	assert.ErrorIs(t, am.addRecursive("."), ErrClosed)
}

func TestCloseWithoutInitialize(t *testing.T) {
	am, err := NewAssetManager()
	require.NoError(t, err)
	assert.NoError(t, am.Close())
}

func TestIsShader(t *testing.T) {
	assert.True(t, IsShader("shaders/fxaa/node.frag.spv"))
	assert.False(t, IsShader("shaders/fxaa/node.frag"))
	assert.False(t, IsShader("README"))
}
