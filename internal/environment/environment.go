// Package environment abstracts writes to the process environment so the
// setup procedure can be observed without touching real process state.
package environment

import (
	"fmt"
	"maps"
	"os"
	"sync"
)

// Writer sets environment variables.
type Writer interface {
	Setenv(key, value string) error
}

// Process writes to the environment of the running process.
type Process struct{}

// Setenv implements Writer.
func (Process) Setenv(key, value string) error {
	if err := os.Setenv(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}

	return nil
}

// Recorder keeps variables in memory.
type Recorder struct {
	mu   sync.Mutex
	vars map[string]string
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		vars: make(map[string]string),
	}
}

// Setenv implements Writer.
func (r *Recorder) Setenv(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vars == nil {
		r.vars = make(map[string]string)
	}

	r.vars[key] = value

	return nil
}

// Get returns the recorded value of key.
func (r *Recorder) Get(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, ok := r.vars[key]

	return value, ok
}

// Snapshot returns a copy of all recorded variables.
func (r *Recorder) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return maps.Clone(r.vars)
}
