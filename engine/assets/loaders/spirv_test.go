package loaders

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSPIRVLoader(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o644))
		return p
	}
	l := &SPIRVLoader{}

	data, err := l.Load(write("ok.spv", []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}))
	require.NoError(t, err)
	assert.Len(t, data, 8)

	_, err = l.Load(write("magic.spv", []byte{1, 2, 3, 4}))
	assert.ErrorIs(t, err, ErrInvalidSPIRV)

	_, err = l.Load(write("short.spv", []byte{0x03, 0x02, 0x23}))
	assert.ErrorIs(t, err, ErrInvalidSPIRV)

	_, err = l.Load(filepath.Join(dir, "missing.spv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
