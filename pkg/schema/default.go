package schema

import (
	_ "embed"
	"sync"
)

//go:embed schema.json
var defaultSchema []byte

var (
	defaultOnce sync.Once
	defaultReg  *Registry
	defaultErr  error
)

// Default returns the built-in lyph graph schema.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(defaultSchema)
	})
	return defaultReg, defaultErr
}

// DefaultJSON returns a copy of the built-in schema document.
func DefaultJSON() []byte {
	out := make([]byte, len(defaultSchema))
	copy(out, defaultSchema)
	return out
}
