package discord

import "sync"

// queue runs jobs one at a time on a single worker, in the order they were pushed
type queue struct {
	jobs chan func()
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// newQueue starts the worker. size is how many jobs may wait before push blocks
func newQueue(size int) *queue {
	q := &queue{
		jobs: make(chan func(), size),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *queue) run() {
	defer close(q.done)
	for {
		select {
		case job := <-q.jobs:
			job()
		case <-q.quit:
			return
		}
	}
}

// push hands job to the worker. It reports false once the queue is stopped
func (q *queue) push(job func()) bool {
	select {
	case <-q.quit:
		return false
	default:
	}

	select {
	case q.jobs <- job:
		return true
	case <-q.quit:
		return false
	}
}

// stop waits for the running job, if any, and drops the ones still waiting
func (q *queue) stop() {
	q.once.Do(func() { close(q.quit) })
	<-q.done
}
