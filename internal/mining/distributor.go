package mining

import (
	"sync/atomic"
	"time"
)

// publishPollInterval paces the drain-wait loop in Publish and the workers'
// stall-wait loops. Coarse on purpose: pools cannot send jobs faster than
// network latency allows.
const publishPollInterval = 100 * time.Millisecond

// Distributor hands a single shared current job to every worker. One
// Distributor exists per mining session.
//
// Publish waits until every worker has copied the previous job before it
// overwrites the shared record, then bumps the generation counter as the
// release signal: a worker that observes a new generation is guaranteed to
// read the fully written job. The consume counter is a polled rendezvous,
// not a lock; it relies on job arrival being orders of magnitude slower than
// a hash iteration.
type Distributor struct {
	current     Job
	generation  atomic.Uint64
	consumeCnt  atomic.Uint64
	workerCount atomic.Uint64
}

// NewDistributor creates a distributor for a fixed number of workers.
func NewDistributor(workers int) *Distributor {
	d := &Distributor{}
	d.workerCount.Store(uint64(workers))
	return d
}

// Generation returns the number of jobs published so far.
func (d *Distributor) Generation() uint64 {
	return d.generation.Load()
}

// Publish installs job as the new shared current job. It must only be called
// from the single coordinating thread. It blocks until all workers have
// drained the previous job.
func (d *Distributor) Publish(job Job) {
	for d.consumeCnt.Load() < d.workerCount.Load() {
		time.Sleep(publishPollInterval)
	}

	d.current = job
	d.consumeCnt.Store(0)
	d.generation.Add(1)
}

// consume copies the shared current job for a worker and acknowledges the
// drain. Safe for concurrent calls from different workers.
func (d *Distributor) consume() Job {
	job := d.current
	d.consumeCnt.Add(1)
	return job
}

// ready acknowledges a worker that starts on its seed job without consuming;
// threads get their first job as they are initialized.
func (d *Distributor) ready() {
	d.consumeCnt.Add(1)
}

// retire removes a worker that failed setup from the drain barrier so that
// Publish does not wait forever on an acknowledgement that will never come.
func (d *Distributor) retire() {
	d.workerCount.Add(^uint64(0))
}
