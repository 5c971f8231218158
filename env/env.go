//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

// Package env implements global environment for the sum-of-products
// protocol.
package env

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// Config defines the global system configuration. It configures the
// dealer, the evaluator, and the transport. Config must not be
// modified after being passed to any module. It is safe for
// concurrent use by multiple modules as they do not modify it.
type Config struct {
	// Rand is the entropy source for mask generation. If nil, the
	// crypto/rand.Reader is used.
	Rand io.Reader

	// Verbose enables debug output. The debug output never contains
	// masks, shares, or input values.
	Verbose bool

	// Output receives the debug output. If nil, debug output goes to
	// standard output.
	Output io.Writer

	m sync.Mutex
}

// GetRandom returns the source of entropy for mask generation.
func (config *Config) GetRandom() io.Reader {
	if config != nil && config.Rand != nil {
		return config.Rand
	}
	return rand.Reader
}

// Debugf prints a debugging message if Verbose output is enabled.
func (config *Config) Debugf(format string, a ...interface{}) {
	if config == nil || !config.Verbose {
		return
	}
	config.m.Lock()
	defer config.m.Unlock()

	if config.Output != nil {
		fmt.Fprintf(config.Output, format, a...)
	} else {
		fmt.Printf(format, a...)
	}
}
