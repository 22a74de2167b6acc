package flow

import "sync"

// Dispatcher runs fn in the context that owns presentation.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// Immediate runs fn on the calling goroutine.
var Immediate Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// Queue hands callbacks to a loop that drains C.
type Queue struct {
	ch   chan func()
	done chan struct{}
	once sync.Once
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan func(), size), done: make(chan struct{})}
}

// Dispatch enqueues fn. After Close it drops fn.
func (q *Queue) Dispatch(fn func()) {
	select {
	case <-q.done:
		return
	default:
	}
	select {
	case q.ch <- fn:
	case <-q.done:
	}
}

// C delivers queued callbacks in order.
func (q *Queue) C() <-chan func() {
	return q.ch
}

// Close stops accepting callbacks and unblocks pending Dispatch calls.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.done) })
}
