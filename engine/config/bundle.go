package config

import (
	"fmt"
	"strconv"
)

// Bundle is a read-only string key/value view. Unknown keys are never an
// error; only Require reports absent keys.
type Bundle struct {
	values map[string]string
}

func NewBundle(values map[string]string) *Bundle {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Bundle{values: cp}
}

func (b *Bundle) Get(key string) (string, bool) {
	if b == nil {
		return "", false
	}
	v, ok := b.values[key]
	return v, ok
}

func (b *Bundle) GetOr(key string, fallback string) string {
	if v, ok := b.Get(key); ok {
		return v
	}
	return fallback
}

func (b *Bundle) Float(key string, fallback float32) (float32, error) {
	v, ok := b.Get(key)
	if !ok {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidConfig, key, v)
	}
	return float32(f), nil
}

// Require returns a *MissingKeyError for the first absent key.
func (b *Bundle) Require(keys ...string) error {
	for _, k := range keys {
		if _, ok := b.Get(k); !ok {
			return &MissingKeyError{Key: k}
		}
	}
	return nil
}
