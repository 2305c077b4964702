package inference

import (
	"context"
	"sync"
)

// Poster runs closures on the interactive context. Post must not block for
// long and may be called from any goroutine.
type Poster interface {
	Post(fn func())
}

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(fn func())

func (f PosterFunc) Post(fn func()) {
	f(fn)
}

// Loop is a serial event loop. Closures posted to it run one at a time, in
// order, on the goroutine that calls Run.
type Loop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop whose queue holds up to buffer pending closures.
func NewLoop(buffer int) *Loop {
	if buffer < 1 {
		buffer = 1
	}
	return &Loop{
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post queues fn. Closures posted after Stop are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Do posts fn and waits for it to finish. It reports false if the loop
// stopped before fn ran. Do must not be called from the loop goroutine.
func (l *Loop) Do(fn func()) bool {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
		return true
	case <-l.done:
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// Run executes posted closures until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			fn()
		}
	}
}

// Stop ends Run. It is safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Done is closed once the loop has been stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
