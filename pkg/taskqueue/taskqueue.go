// Package taskqueue implements the "background task queue with its own
// supervisor" design note in spec.md §9: a small bounded worker pool for
// fire-and-forget side effects (Notifier dispatch, AdmissionFilter
// evaluation) so they never share a cancellation scope with the inbound
// request that triggered them.
//
// Grounded on cmd/cron/main.go's sync.WaitGroup-supervised goroutine
// style, generalized from periodic monitors to an arbitrary task queue.
package taskqueue

import (
	"context"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
)

// Queue runs submitted tasks on a fixed pool of worker goroutines,
// detached from any caller's context. A panicking task is recovered and
// logged; it never takes down a worker or the process.
type Queue struct {
	tasks chan func(context.Context)
	wg    sync.WaitGroup

	closeOnce sync.Once
	done      chan struct{}
}

// New starts a Queue with workers goroutines and a buffer of size
// backlog for pending tasks.
func New(workers, backlog int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if backlog < 0 {
		backlog = 0
	}
	q := &Queue{
		tasks: make(chan func(context.Context), backlog),
		done:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for task := range q.tasks {
		q.run(task)
	}
}

func (q *Queue) run(task func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("taskqueue: recovered panic in background task: %v", r)
		}
	}()
	task(context.Background())
}

// Submit enqueues a task to run on a worker goroutine. If the queue has
// been closed, the task is dropped and logged rather than run or
// blocking the caller.
func (q *Queue) Submit(task func(context.Context)) {
	select {
	case <-q.done:
		logx.Errorf("taskqueue: dropped task submitted after shutdown")
		return
	default:
	}
	select {
	case q.tasks <- task:
	case <-q.done:
		logx.Errorf("taskqueue: dropped task submitted after shutdown")
	}
}

// Close stops accepting new tasks and waits for in-flight tasks to
// finish draining the backlog.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
		close(q.tasks)
	})
	q.wg.Wait()
}
