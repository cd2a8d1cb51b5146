package mining

import (
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shizukutanaka/Kagura/internal/config"
	"github.com/shizukutanaka/Kagura/internal/cryptonight"
	"github.com/shizukutanaka/Kagura/internal/hardware"
	"github.com/shizukutanaka/Kagura/internal/telemetry"
)

// Width is the batch width of a mining thread: how many hash lanes one call
// to the primitive computes.
type Width int

// Supported batch widths.
const (
	Width1 Width = 1
	Width2 Width = 2
	Width4 Width = 4
	Width5 Width = 5
	Width6 Width = 6
)

// hashFunc is the common shape of the batched hash entry points.
type hashFunc func(in []byte, laneLen int, out []byte, ctxs []*cryptonight.Context)

// entryPoint returns the primitive entry point matching the width.
func (w Width) entryPoint() hashFunc {
	switch w {
	case Width2:
		return cryptonight.HashDouble
	case Width4:
		return cryptonight.HashQuad
	case Width5:
		return cryptonight.HashPent
	case Width6:
		return cryptonight.HashHex
	default:
		return func(in []byte, laneLen int, out []byte, ctxs []*cryptonight.Context) {
			cryptonight.HashSingle(in[:laneLen], out, ctxs[0])
		}
	}
}

// Worker owns one OS thread and runs the hash loop variant matching its
// batch width.
type Worker struct {
	id       int
	width    Width
	affinity int
	policy   config.SlowMemPolicy

	job    Job
	jobGen uint64

	quit atomic.Bool
	done chan struct{}

	dist   *Distributor
	tel    *telemetry.Telemetry
	sink   ResultSink
	logger *zap.Logger

	// hashFn overrides the width's entry point; used by tests to inject a
	// deterministic family.
	hashFn hashFunc
}

func newWorker(id int, width Width, affinity int, policy config.SlowMemPolicy,
	seed Job, dist *Distributor, tel *telemetry.Telemetry, sink ResultSink,
	logger *zap.Logger) *Worker {

	return &Worker{
		id:       id,
		width:    width,
		affinity: affinity,
		policy:   policy,
		job:      seed,
		done:     make(chan struct{}),
		dist:     dist,
		tel:      tel,
		sink:     sink,
		logger:   logger.With(zap.Int("thread", id), zap.Int("multiway", int(width))),
	}
}

// start launches the worker's OS thread.
func (w *Worker) start() {
	go w.run()
}

// stop requests termination at the next loop checkpoint.
func (w *Worker) stop() {
	w.quit.Store(true)
}

// wait blocks until the worker's loop has exited.
func (w *Worker) wait() {
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.affinity >= 0 {
		if hardware.AffinityAdvisory() {
			w.logger.Warn("Thread affinity is only advisory on this platform")
		}
		if err := hardware.PinCurrentThread(w.affinity); err != nil {
			w.logger.Warn("Failed to pin thread", zap.Int("cpu", w.affinity), zap.Error(err))
		}
	}

	if w.width == Width1 {
		w.workMain()
	} else {
		w.multiwayWorkMain(int(w.width))
	}
}

// waitForJob polls for a new generation during a stall. Returns false when
// the worker was told to quit instead.
func (w *Worker) waitForJob() bool {
	for w.dist.generation.Load() == w.jobGen {
		if w.quit.Load() {
			return false
		}
		time.Sleep(publishPollInterval)
	}
	return true
}

// consumeWork refreshes the worker's private job copy from the distributor.
func (w *Worker) consumeWork() {
	w.job = w.dist.consume()
	w.jobGen++
}

// firstNonce derives the starting nonce for the worker's current job.
func (w *Worker) firstNonce() uint32 {
	if w.job.NiceHash {
		return niceHashNonce(readNonce(w.job.Blob[:]), w.job.ResumeCount)
	}
	return startNonce(w.job.ResumeCount)
}

// workMain is the width-1 hash loop.
func (w *Worker) workMain() {
	ctx, err := allocContext(w.policy, w.logger)
	if err != nil {
		w.logger.Error("Scratchpad allocation failed, thread will not mine", zap.Error(err))
		w.dist.retire()
		return
	}
	defer ctx.Free()

	hash := w.hashFn
	if hash == nil {
		hash = w.width.entryPoint()
	}
	ctxs := []*cryptonight.Context{ctx}

	var (
		count uint64
		out   [cryptonight.HashSize]byte
		res   Result
	)

	// Threads get their seed job as they are initialized.
	w.dist.ready()

	for !w.quit.Load() {
		if w.job.Stall {
			// The executor has no job for us yet, usually network latency.
			// Waiting is all there is to do.
			if !w.waitForJob() {
				return
			}
			w.consumeWork()
			continue
		}

		nonce := w.firstNonce()
		res.JobID = w.job.ID
		blob := w.job.Blob[:w.job.BlobLen]

		for w.dist.generation.Load() == w.jobGen {
			if w.quit.Load() {
				return
			}

			if count&0xF == 0 { // sample every 16 hashes
				w.tel.Push(w.id, count, uint64(time.Now().UnixMilli()))
			}
			count++

			nonce++ // 32-bit wrap recycles the nonce space
			writeNonce(blob, nonce)

			hash(blob, w.job.BlobLen, out[:], ctxs)

			if readHashValue(out[:]) < w.job.Target {
				res.Nonce = nonce
				res.Hash = out
				w.sink.Submit(res, w.job.PoolID)
			}

			runtime.Gosched()
		}

		w.consumeWork()
	}
}

// multiwayWorkMain is the batched hash loop: n lanes share one call, each
// with its own scratch context and its own blob copy laid end to end.
func (w *Worker) multiwayWorkMain(n int) {
	ctxs := make([]*cryptonight.Context, n)
	defer func() {
		for _, ctx := range ctxs {
			ctx.Free()
		}
	}()
	for i := range ctxs {
		ctx, err := allocContext(w.policy, w.logger)
		if err != nil {
			w.logger.Error("Scratchpad allocation failed, thread will not mine",
				zap.Int("lane", i), zap.Error(err))
			w.dist.retire()
			return
		}
		ctxs[i] = ctx
	}

	hash := w.hashFn
	if hash == nil {
		hash = w.width.entryPoint()
	}

	var (
		count uint64
		iters uint64
		res   Result
	)
	workBlob := make([]byte, n*MaxBlobSize)
	hashOut := make([]byte, n*cryptonight.HashSize)

	// broadcast copies the current job blob into every lane.
	broadcast := func() {
		for i := 0; i < n; i++ {
			copy(workBlob[i*w.job.BlobLen:(i+1)*w.job.BlobLen], w.job.Blob[:w.job.BlobLen])
		}
	}

	w.dist.ready()
	broadcast()

	for !w.quit.Load() {
		if w.job.Stall {
			if !w.waitForJob() {
				return
			}
			w.consumeWork()
			broadcast()
			continue
		}

		nonce := w.firstNonce()
		res.JobID = w.job.ID
		laneLen := w.job.BlobLen

		for w.dist.generation.Load() == w.jobGen {
			if w.quit.Load() {
				return
			}

			if iters&0x3 == 0 { // sample every 4 batches, i.e. 4*n hashes
				w.tel.Push(w.id, count, uint64(time.Now().UnixMilli()))
			}
			iters++
			count += uint64(n)

			for i := 0; i < n; i++ {
				nonce++
				writeNonce(workBlob[i*laneLen:(i+1)*laneLen], nonce)
			}

			hash(workBlob[:n*laneLen], laneLen, hashOut, ctxs)

			for i := 0; i < n; i++ {
				lane := hashOut[i*cryptonight.HashSize : (i+1)*cryptonight.HashSize]
				if readHashValue(lane) < w.job.Target {
					res.Nonce = nonce - uint32(n) + 1 + uint32(i)
					copy(res.Hash[:], lane)
					w.sink.Submit(res, w.job.PoolID)
				}
			}

			runtime.Gosched()
		}

		w.consumeWork()
		broadcast()
	}
}
