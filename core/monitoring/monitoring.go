// Package monitoring holds the process-wide error monitor. Infrastructure
// reports failures through CaptureException; goroutines defer Recover so a
// panic is reported before it propagates.
package monitoring

import (
	"fmt"
	"sync"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	CapturePanic(v any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) CapturePanic(any)                          {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation. A nil monitor is ignored.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Current returns the installed monitor.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags. Nil errors are ignored.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	Current().CaptureException(err, tags)
}

// Recover reports a panic and re-raises it. It must be deferred directly:
//
//	defer monitoring.Recover()
func Recover() {
	if r := recover(); r != nil {
		m := Current()
		m.CapturePanic(r)
		m.Flush(2 * time.Second)
		panic(r)
	}
}

// RecoverError reports a panic and stores it in *errp instead of re-raising.
// It must be deferred directly.
func RecoverError(errp *error) {
	if r := recover(); r != nil {
		m := Current()
		m.CapturePanic(r)
		m.Flush(2 * time.Second)
		if errp != nil {
			*errp = fmt.Errorf("panic: %v", r)
		}
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	Current().Flush(d)
}
