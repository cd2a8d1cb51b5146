// Package mining implements the CPU mining engine: job distribution across
// worker threads, the single and batched hash loops, nonce derivation,
// scratch-memory allocation policy and the startup self-test.
package mining

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/shizukutanaka/Kagura/internal/config"
	"github.com/shizukutanaka/Kagura/internal/telemetry"
)

// Miner orchestrates one mining session: it owns the job distributor, the
// telemetry rings and the worker threads. Construct one Miner per session and
// call Start exactly once before any Publish.
type Miner struct {
	logger  *zap.Logger
	cfg     config.MinerConfig
	dist    *Distributor
	tel     *telemetry.Telemetry
	sink    ResultSink
	workers []*Worker
	started bool
}

// NewMiner creates a mining session for the configured thread layout.
func NewMiner(cfg config.MinerConfig, sink ResultSink, logger *zap.Logger) *Miner {
	n := len(cfg.Threads)
	return &Miner{
		logger: logger,
		cfg:    cfg,
		dist:   NewDistributor(n),
		tel:    telemetry.New(n),
		sink:   sink,
	}
}

// SelfTest validates the hash primitive under the session's memory policy.
// Mining must not start when it returns false.
func (m *Miner) SelfTest() bool {
	return SelfTest(m.cfg.UseSlowMemory, m.logger)
}

// Start creates one worker per configured thread, seeded with the initial
// job, and sets them running.
func (m *Miner) Start(initial Job) error {
	if m.started {
		return fmt.Errorf("miner already started")
	}
	m.started = true

	m.workers = make([]*Worker, 0, len(m.cfg.Threads))
	for i, thd := range m.cfg.Threads {
		w := newWorker(i, Width(thd.Multiway), thd.Affinity, m.cfg.UseSlowMemory,
			initial, m.dist, m.tel, m.sink, m.logger)
		m.workers = append(m.workers, w)
		w.start()

		if thd.Affinity >= 0 {
			m.logger.Info("Starting mining thread",
				zap.Int("multiway", thd.Multiway), zap.Int("affinity", thd.Affinity))
		} else {
			m.logger.Info("Starting mining thread, no affinity",
				zap.Int("multiway", thd.Multiway))
		}
	}
	return nil
}

// Publish hands a new job to all workers. Blocks until every worker has
// drained the previous job.
func (m *Miner) Publish(job Job) {
	m.dist.Publish(job)
}

// Stop signals every worker to quit and waits for their loops to exit.
func (m *Miner) Stop() {
	for _, w := range m.workers {
		w.stop()
	}
	for _, w := range m.workers {
		w.wait()
	}
}

// Telemetry exposes the per-thread sample rings.
func (m *Miner) Telemetry() *telemetry.Telemetry {
	return m.tel
}

// Hashrate sums the per-thread rates over the trailing window. Threads
// without enough history yet contribute nothing.
func (m *Miner) Hashrate(window time.Duration) float64 {
	var total float64
	for i := range m.workers {
		if rate := m.tel.Rate(i, window); !math.IsNaN(rate) {
			total += rate
		}
	}
	return total
}
