package graphqljit

import (
	"errors"
	"fmt"
	"sync"
)

// Future is the minimal one-shot async contract a resolver may return instead
// of a plain value. Subscribe must invoke the callback exactly once, with
// either a value or an error; it may do so synchronously if the result is
// already available.
type Future interface {
	Subscribe(callback func(value any, err error))
}

// Promise is a completable Future. The zero value is an unsettled promise
// ready for use; NewPromise returns a pointer to one.
type Promise struct {
	mu       sync.Mutex
	settled  bool
	value    any
	err      error
	pending  []func(any, error)
}

// NewPromise returns an unsettled promise.
func NewPromise() *Promise { return &Promise{} }

// Resolve settles the promise with a value. Settling twice is a no-op.
func (p *Promise) Resolve(value any) { p.settle(value, nil) }

// Reject settles the promise with an error. A nil error becomes a synthesized
// error with an empty message.
func (p *Promise) Reject(err error) {
	if err == nil {
		err = errors.New("")
	}
	p.settle(nil, err)
}

func (p *Promise) settle(value any, err error) {
	p.mu.Lock()
	if p.settled {
		p.mu.Unlock()
		return
	}
	p.settled = true
	p.value = value
	p.err = err
	subs := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, cb := range subs {
		cb(value, err)
	}
}

// Subscribe registers a callback; if the promise is already settled the
// callback runs synchronously on the caller's goroutine.
func (p *Promise) Subscribe(callback func(value any, err error)) {
	p.mu.Lock()
	if p.settled {
		value, err := p.value, p.err
		p.mu.Unlock()
		callback(value, err)
		return
	}
	p.pending = append(p.pending, callback)
	p.mu.Unlock()
}

// Go runs fn on its own goroutine and returns a Future for its result. A
// panic inside fn rejects the future.
func Go(fn func() (any, error)) Future {
	p := NewPromise()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.Reject(panicError(r))
			}
		}()
		v, err := fn()
		if err != nil {
			p.Reject(err)
			return
		}
		p.Resolve(v)
	}()
	return p
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

// containsFuture reports whether any element of the list is a Future.
func containsFuture(list []any) bool {
	for _, e := range list {
		if _, ok := e.(Future); ok {
			return true
		}
	}
	return false
}

// awaitList materializes a list whose elements may individually be futures.
// Each rejection is caught and stored as an in-band error element, so the
// list itself never fails. done is called exactly once with the materialized
// list; it may run on the goroutine of the last future to settle.
func awaitList(list []any, done func([]any)) {
	out := make([]any, len(list))
	var mu sync.Mutex
	pending := 1 // the enumeration itself
	finish := func() {
		mu.Lock()
		pending--
		last := pending == 0
		mu.Unlock()
		if last {
			done(out)
		}
	}
	for i, e := range list {
		if f, ok := e.(Future); ok {
			mu.Lock()
			pending++
			mu.Unlock()
			idx := i
			f.Subscribe(func(v any, err error) {
				if err != nil {
					out[idx] = err
				} else {
					out[idx] = v
				}
				finish()
			})
			continue
		}
		out[i] = e
	}
	finish()
}
