package queue

import (
	"errors"
	"log"
	"sync"
)

var ErrClosed = errors.New("queue: closed")

type Job struct {
	Fn   func() error
	Errc chan error
}

type RequestQueueManager struct {
	JobQueue   chan Job
	MaxWorkers int
	name       string
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
}

func NewRequestQueueManager(queueSize int, maxWorkers int) *RequestQueueManager {
	return newManager("request", queueSize, maxWorkers)
}

// NewSerialQueue runs every job on one goroutine, in submission order.
func NewSerialQueue(name string, queueSize int) *RequestQueueManager {
	return newManager(name, queueSize, 1)
}

func newManager(name string, queueSize, maxWorkers int) *RequestQueueManager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	manager := &RequestQueueManager{
		JobQueue:   make(chan Job, queueSize),
		MaxWorkers: maxWorkers,
		name:       name,
	}
	manager.startWorkers()
	return manager
}

func (rqm *RequestQueueManager) startWorkers() {
	for i := 0; i < rqm.MaxWorkers; i++ {
		rqm.wg.Add(1)
		go func(workerID int) {
			defer rqm.wg.Done()
			log.Printf("%s worker %d started", rqm.name, workerID)
			for job := range rqm.JobQueue {
				err := job.Fn()
				if job.Errc != nil {
					job.Errc <- err
				}
			}
			log.Printf("%s worker %d stopped", rqm.name, workerID)
		}(i)
	}
}

func (rqm *RequestQueueManager) EnqueueJob(job Job) error {
	rqm.mu.RLock()
	defer rqm.mu.RUnlock()
	if rqm.closed {
		return ErrClosed
	}
	rqm.JobQueue <- job
	return nil
}

// Do runs fn on a worker and waits for its result.
func (rqm *RequestQueueManager) Do(fn func() error) error {
	errc := make(chan error, 1)
	if err := rqm.EnqueueJob(Job{Fn: fn, Errc: errc}); err != nil {
		return err
	}
	return <-errc
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (rqm *RequestQueueManager) Shutdown() {
	rqm.mu.Lock()
	if rqm.closed {
		rqm.mu.Unlock()
		return
	}
	rqm.closed = true
	close(rqm.JobQueue)
	rqm.mu.Unlock()
	rqm.wg.Wait()
}
