package graphtest

import (
	"fmt"
	"io/fs"
)

// Shaders serves fake SPIR-V for any path not listed in Missing.
type Shaders struct {
	Missing map[string]bool
	Loaded  []string
}

func (s *Shaders) LoadShader(path string) ([]byte, error) {
	if s.Missing[path] {
		return nil, fmt.Errorf("load %s: %w", path, fs.ErrNotExist)
	}
	s.Loaded = append(s.Loaded, path)
	// SPIR-V magic number, little endian.
	return []byte{0x03, 0x02, 0x23, 0x07}, nil
}
