package loaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

const spirvMagic uint32 = 0x07230203

var ErrInvalidSPIRV = errors.New("invalid SPIR-V")

type SPIRVLoader struct{}

// Load reads a SPIR-V module and checks its header.
func (sl *SPIRVLoader) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrInvalidSPIRV, path, len(data))
	}
	if magic := binary.LittleEndian.Uint32(data); magic != spirvMagic {
		return nil, fmt.Errorf("%w: %s has magic %#08x", ErrInvalidSPIRV, path, magic)
	}
	return data, nil
}
