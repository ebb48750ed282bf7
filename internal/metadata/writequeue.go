package metadata

import (
	"gorm.io/gorm"

	"github.com/wxoracle/wxoracle/internal/apierr"
)

// writeJob is a closure submitted to the WriteQueue along with the
// one-shot channel its result is delivered on.
type writeJob struct {
	fn     func(tx *gorm.DB) (interface{}, error)
	result chan writeResult
}

type writeResult struct {
	value interface{}
	err   error
}

// WriteQueue serializes all mutating access to the metadata database
// through a single in-process goroutine, the discipline spec.md §4.C
// and §9 require so the store stays compatible with continuous
// log-shipping backup. Reads bypass the queue entirely and use the
// gorm connection pool directly.
type WriteQueue struct {
	db   *gorm.DB
	jobs chan writeJob
	done chan struct{}
}

// NewWriteQueue constructs a queue bound to db. Call Run in its own
// goroutine to start draining it.
func NewWriteQueue(db *gorm.DB) *WriteQueue {
	return &WriteQueue{
		db:   db,
		jobs: make(chan writeJob, 64),
		done: make(chan struct{}),
	}
}

// Run drains submitted jobs one at a time until Close is called. Each
// job runs inside its own transaction; a job that returns an error
// rolls its transaction back.
func (q *WriteQueue) Run() {
	for job := range q.jobs {
		var value interface{}
		err := q.db.Transaction(func(tx *gorm.DB) error {
			v, err := job.fn(tx)
			value = v
			return err
		})
		job.result <- writeResult{value: value, err: err}
	}
	close(q.done)
}

// Submit enqueues fn and blocks for its result. fn receives a *gorm.DB
// transaction handle and must not be called again after this
// returns.
func (q *WriteQueue) Submit(fn func(tx *gorm.DB) (interface{}, error)) (interface{}, error) {
	result := make(chan writeResult, 1)
	q.jobs <- writeJob{fn: fn, result: result}
	r := <-result
	if r.err != nil {
		return nil, apierr.WrapKind(apierr.Transient, r.err)
	}
	return r.value, nil
}

// Close stops accepting new jobs and waits for the queue to drain.
func (q *WriteQueue) Close() {
	close(q.jobs)
	<-q.done
}
