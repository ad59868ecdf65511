package config

import (
	"errors"
	"fmt"
)

var (
	ErrMissingConfigKey = errors.New("missing config key")
	ErrInvalidConfig    = errors.New("invalid config")
)

// MissingKeyError names the required key that was absent from a Bundle.
type MissingKeyError struct {
	Key string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingConfigKey, e.Key)
}

func (e *MissingKeyError) Unwrap() error {
	return ErrMissingConfigKey
}
