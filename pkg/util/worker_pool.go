package util

import (
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
)

// ErrPoolClosed is returned when a task is passed to the released pool.
var ErrPoolClosed = ants.ErrPoolClosed

// WorkerPool runs tasks on a bounded number of routines and tracks them
// until they return.
type WorkerPool struct {
	pool   *ants.Pool
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewWorkerPool returns a pool of at most size routines. Non-positive size
// means tasks are run in the caller's routine.
func NewWorkerPool(size int) (*WorkerPool, error) {
	var p WorkerPool

	if size > 0 {
		var err error

		p.pool, err = ants.NewPool(size)
		if err != nil {
			return nil, fmt.Errorf("create worker pool: %w", err)
		}
	}

	return &p, nil
}

// Go runs f on a free routine, blocking while all of them are busy.
func (p *WorkerPool) Go(f func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.wg.Add(1)

	task := func() {
		defer p.wg.Done()
		f()
	}

	if p.pool == nil {
		task()
		return nil
	}

	if err := p.pool.Submit(task); err != nil {
		p.wg.Done()
		return err
	}

	return nil
}

// Wait blocks until every task passed to Go returns.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}

// Release waits for the running tasks and frees the routines. Go fails
// with ErrPoolClosed afterwards.
func (p *WorkerPool) Release() {
	p.closed.Store(true)
	p.wg.Wait()

	if p.pool != nil {
		p.pool.Release()
	}
}
