package calibration

import (
	"runtime"
	"sync"
)

// workerPool runs fetch jobs on a fixed number of goroutines
type workerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
}

// newWorkerPool creates a pool; workers <= 0 means one per CPU
func newWorkerPool(workers int) *workerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &workerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// start launches the workers once
func (wp *workerPool) start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *workerPool) worker() {
	for job := range wp.jobQueue {
		job()
		wp.wg.Done()
	}
}

// submit queues a job, blocking while the queue is full
func (wp *workerPool) submit(job func()) {
	wp.wg.Add(1)
	wp.jobQueue <- job
}

// wait blocks until every submitted job has finished
func (wp *workerPool) wait() {
	wp.wg.Wait()
}

// close stops the workers after the queue drains
func (wp *workerPool) close() {
	close(wp.jobQueue)
}
