// Package workerpool provides a fixed-size executor that runs batches of
// tasks and waits for each batch to finish.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("workerpool: closed")

// Task is one unit of work in a batch.
type Task func(ctx context.Context) error

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("task panicked: %v", e.Value) }

type job struct {
	ctx   context.Context
	task  Task
	index int
	errs  []error
	wg    *sync.WaitGroup
}

// Pool runs tasks on a fixed number of goroutines.
type Pool struct {
	size int
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts a pool with size workers. Sizes below one are raised to one.
func New(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{size: size, jobs: make(chan job, size)}
	for range size {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Run submits tasks and blocks until every one has returned. The returned
// slice holds each task's error at the task's index.
func (p *Pool) Run(ctx context.Context, tasks []Task) ([]error, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	errs := make([]error, len(tasks))
	var batch sync.WaitGroup
	batch.Add(len(tasks))
	for i, t := range tasks {
		p.jobs <- job{ctx: ctx, task: t, index: i, errs: errs, wg: &batch}
	}
	batch.Wait()
	return errs, nil
}

// Close stops the workers after queued jobs drain. It is safe to call more
// than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		j.errs[j.index] = execute(j.ctx, j.task)
		j.wg.Done()
	}
}

func execute(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return t(ctx)
}
