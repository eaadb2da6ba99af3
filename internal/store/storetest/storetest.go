// Package storetest provides in-memory stores for tests. Every method can be
// made to fail with Fail, and calls are recorded in order.
package storetest

import (
	"context"
	"sync"
	"time"
)

// Failures records calls and returns injected errors by method name.
type Failures struct {
	mu    sync.Mutex
	errs  map[string]error
	calls []string
}

// Fail makes every later call of method return err. A nil err clears it.
func (f *Failures) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	if err == nil {
		delete(f.errs, method)
		return
	}
	f.errs[method] = err
}

// Calls returns the method names called so far.
func (f *Failures) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Called reports whether method was called at least once.
func (f *Failures) Called(method string) bool {
	for _, c := range f.Calls() {
		if c == method {
			return true
		}
	}
	return false
}

func (f *Failures) call(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	return f.errs[method]
}

func (f *Failures) Ping(context.Context) error {
	return f.call("Ping")
}

func (f *Failures) Close(context.Context) error {
	return f.call("Close")
}

// Clock is a fixed time source.
func Clock() time.Time {
	return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
}

// timeStep spaces generated timestamps so insertion order is observable.
func timeStep(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
