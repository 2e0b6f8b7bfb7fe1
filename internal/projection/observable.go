package projection

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Observable is a value cell that notifies subscribers on every change.
//
// Notifications are delivered one change at a time, in the order the changes were made.
// Subscriber callbacks run on the writer's goroutine and must not call Set, Update,
// Subscribe or an unsubscribe func of the same Observable.
type Observable[T any] struct {
	notify sync.Mutex // serializes writes with their notifications

	mu     sync.RWMutex
	value  T
	subs   map[int]func(T)
	nextID int
}

// NewObservable creates an Observable holding initial.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set replaces the value and notifies subscribers.
func (o *Observable[T]) Set(v T) {
	o.Update(func(T) T { return v })
}

// Update replaces the value with fn(current) and notifies subscribers.
func (o *Observable[T]) Update(fn func(T) T) {
	o.notify.Lock()
	defer o.notify.Unlock()

	o.mu.Lock()
	o.value = fn(o.value)
	v := o.value
	subs := make([]func(T), 0, len(o.subs))
	for _, id := range o.sortedIDs() {
		subs = append(subs, o.subs[id])
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Subscribe calls fn with the current value and then after every change.
// The returned func removes the subscription; once it returns fn is not called again.
func (o *Observable[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.notify.Lock()
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	v := o.value
	o.mu.Unlock()
	fn(v)
	o.notify.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.notify.Lock()
			defer o.notify.Unlock()
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// Watch returns a channel carrying the current value and then subsequent values until ctx is done.
//
// Slow receivers only see the latest value: a pending value that has not been received is replaced.
func (o *Observable[T]) Watch(ctx context.Context) <-chan T {
	ch := make(chan T, 1)
	unsubscribe := o.Subscribe(func(v T) {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
		close(ch)
	}()

	return ch
}

// Subscribers returns the number of active subscriptions.
func (o *Observable[T]) Subscribers() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}

// sortedIDs returns subscription ids in subscription order. Callers hold mu.
func (o *Observable[T]) sortedIDs() []int {
	return slices.Sorted(maps.Keys(o.subs))
}
