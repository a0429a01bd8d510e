// Package workerpool runs a fixed number of goroutines draining a
// taskqueue.Queue, isolating panics the way a C++ worker would isolate
// exceptions: caught at the task boundary, reported, and the worker keeps
// going unless the task asked to stop.
package workerpool

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/n0call/baw/internal/taskqueue"
)

// Task is one unit of work a Pool runs. Run returning ErrStop (possibly
// wrapped) terminates the worker that ran it; any other
// non-nil error is forwarded to the pool's handler and the worker keeps
// running.
type Task interface {
	Run() error
}

// ErrStop, returned from Task.Run, terminates the worker that ran it.
// PushBack/PushFront a sentinel built with StopTask to drain N workers
// cleanly; raw tasks should not normally return ErrStop themselves.
var ErrStop = errors.New("workerpool: stop")

// taskFunc adapts a plain func() error to Task.
type taskFunc func() error

func (f taskFunc) Run() error { return f() }

// Func wraps a plain function as a Task.
func Func(f func() error) Task { return taskFunc(f) }

// StopTask returns a sentinel Task whose Run always reports ErrStop.
func StopTask() Task { return taskFunc(func() error { return ErrStop }) }

// Handler is called with every error a Task returns other than ErrStop.
// The default handler logs the error and its trace and continues.
type Handler func(err error)

// Pool is a fixed-size pool of goroutines draining a shared TaskQueue.
type Pool struct {
	queue   *taskqueue.Queue[Task]
	size    int
	handler Handler
	group   *errgroup.Group
}

// New starts a Pool of size workers pulling from queue. A nil handler
// logs to logger and continues; logger must not be nil.
func New(size int, queue *taskqueue.Queue[Task], handler Handler, logger logrus.FieldLogger) *Pool {
	if handler == nil {
		handler = func(err error) {
			logger.Errorf("workerpool: task error: %v", err)
		}
	}

	p := &Pool{
		queue:   queue,
		size:    size,
		handler: handler,
		group:   new(errgroup.Group),
	}

	for i := 0; i < size; i++ {
		p.group.Go(p.runWorker)
	}
	return p
}

// runWorker loops popping and running tasks until one reports ErrStop or
// panics past recovery, mirroring the catch-any-exception-and-continue
// shape of the original worker loop.
func (p *Pool) runWorker() error {
	for {
		task := p.queue.Pop()
		stop := p.runTask(task)
		if stop {
			return nil
		}
	}
}

// runTask runs task with panic recovery, reporting to the handler and
// returning whether the worker should stop.
func (p *Pool) runTask(task Task) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			p.handler(fmt.Errorf("workerpool: panic recovered: %v", r))
		}
	}()

	err := task.Run()
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStop) {
		return true
	}
	p.handler(err)
	return false
}

// Shutdown enqueues one ErrStop-returning sentinel per worker at the back
// of the queue, then waits for all workers to exit. Previously queued work
// runs first.
func (p *Pool) Shutdown() error {
	for i := 0; i < p.size; i++ {
		p.queue.PushBack(StopTask())
	}
	return p.group.Wait()
}

// ShutdownNow enqueues one sentinel per worker at the front of the queue,
// ahead of anything still pending, and waits for all workers to exit.
// Queued work that has not started is abandoned.
func (p *Pool) ShutdownNow() error {
	for i := 0; i < p.size; i++ {
		p.queue.PushFront(StopTask())
	}
	return p.group.Wait()
}
