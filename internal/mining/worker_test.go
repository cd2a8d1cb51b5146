package mining

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/shizukutanaka/Kagura/internal/config"
	"github.com/shizukutanaka/Kagura/internal/cryptonight"
	"github.com/shizukutanaka/Kagura/internal/telemetry"
)

// plantedHash is a deterministic stand-in family: every lane's digest embeds
// its nonce, and only the planted nonce produces a value below a target of 2.
func plantedHash(planted uint32) hashFunc {
	return func(in []byte, laneLen int, out []byte, ctxs []*cryptonight.Context) {
		for i := range ctxs {
			nonce := readNonce(in[i*laneLen:])
			lane := out[i*cryptonight.HashSize : (i+1)*cryptonight.HashSize]
			for j := range lane {
				lane[j] = 0
			}
			binary.LittleEndian.PutUint32(lane[:4], nonce)
			value := uint64(math.MaxUint64)
			if nonce == planted {
				value = 1
			}
			binary.LittleEndian.PutUint64(lane[hashValueOffset:hashValueOffset+8], value)
		}
	}
}

func testJob(target uint64) Job {
	job := Job{BlobLen: 76, Target: target, PoolID: 7}
	copy(job.ID[:], "planted-job")
	for i := 0; i < job.BlobLen; i++ {
		job.Blob[i] = byte(i)
	}
	return job
}

func startTestWorker(t *testing.T, width Width, seed Job, planted uint32) (*Worker, *ChannelSink, *Distributor) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	if err := initPrimitive(config.SlowMemAlways, logger); err != nil {
		t.Fatalf("initPrimitive: %v", err)
	}

	dist := NewDistributor(1)
	tel := telemetry.New(1)
	sink := NewChannelSink(16)

	w := newWorker(0, width, -1, config.SlowMemAlways, seed, dist, tel, sink, logger)
	w.hashFn = plantedHash(planted)
	w.start()
	t.Cleanup(func() {
		w.stop()
		w.wait()
	})
	return w, sink, dist
}

func expectResult(t *testing.T, sink *ChannelSink, wantNonce uint32, wantPool int) SubmittedResult {
	t.Helper()
	select {
	case sub := <-sink.Results():
		if sub.Result.Nonce != wantNonce {
			t.Fatalf("nonce = %d, want %d", sub.Result.Nonce, wantNonce)
		}
		if sub.PoolID != wantPool {
			t.Fatalf("pool = %d, want %d", sub.PoolID, wantPool)
		}
		return sub
	case <-time.After(5 * time.Second):
		t.Fatal("no result emitted")
	}
	return SubmittedResult{}
}

func expectNoMoreResults(t *testing.T, sink *ChannelSink) {
	t.Helper()
	select {
	case sub := <-sink.Results():
		t.Fatalf("unexpected extra result, nonce %d", sub.Result.Nonce)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestSingleWorkerFindsPlantedNonce(t *testing.T) {
	job := testJob(2)
	_, sink, _ := startTestWorker(t, Width1, job, 5)

	sub := expectResult(t, sink, 5, 7)

	if !bytes.Equal(sub.Result.JobID[:], job.ID[:]) {
		t.Error("result carries the wrong job id")
	}
	if got := binary.LittleEndian.Uint32(sub.Result.Hash[:4]); got != 5 {
		t.Errorf("result hash is not the planted lane output, marker %d", got)
	}

	expectNoMoreResults(t, sink)
}

func TestQuadWorkerAttributesLaneCorrectly(t *testing.T) {
	// Nonce 5 lands in the second batch (nonces 5-8), lane 0.
	job := testJob(2)
	_, sink, _ := startTestWorker(t, Width4, job, 5)

	sub := expectResult(t, sink, 5, 7)
	if got := binary.LittleEndian.Uint32(sub.Result.Hash[:4]); got != 5 {
		t.Errorf("lane attribution wrong: hash marker %d, want 5", got)
	}

	expectNoMoreResults(t, sink)
}

func TestQuadWorkerMidBatchLane(t *testing.T) {
	// Nonce 7 is lane 2 of the second batch.
	job := testJob(2)
	_, sink, _ := startTestWorker(t, Width4, job, 7)

	sub := expectResult(t, sink, 7, 7)
	if got := binary.LittleEndian.Uint32(sub.Result.Hash[:4]); got != 7 {
		t.Errorf("lane attribution wrong: hash marker %d, want 7", got)
	}
}

func TestWorkerStalledUntilPublish(t *testing.T) {
	_, sink, dist := startTestWorker(t, Width1, NewStalledJob(), 3)

	// Nothing may be mined while stalled.
	select {
	case <-sink.Results():
		t.Fatal("stalled worker emitted a result")
	case <-time.After(150 * time.Millisecond):
	}

	dist.Publish(testJob(2))
	expectResult(t, sink, 3, 7)
}

func TestWorkerSwitchesJobOnPublish(t *testing.T) {
	first := testJob(2)
	_, sink, dist := startTestWorker(t, Width1, first, 4)

	expectResult(t, sink, 4, 7)

	second := testJob(2)
	copy(second.ID[:], "second-job\x00")
	second.PoolID = 9
	second.ResumeCount = 1 // moves the start nonce to a fresh epoch

	dist.Publish(second)

	// The planted nonce is never reached in the new epoch, so the only
	// acceptable outcome is silence.
	select {
	case sub := <-sink.Results():
		if bytes.Equal(sub.Result.JobID[:], first.ID[:]) {
			t.Fatal("worker kept mining the superseded job")
		}
		t.Fatalf("unexpected result %d", sub.Result.Nonce)
	case <-time.After(300 * time.Millisecond):
	}
}
