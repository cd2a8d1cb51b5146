package mining

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/shizukutanaka/Kagura/internal/config"
)

func TestSelfTestPasses(t *testing.T) {
	logger := zaptest.NewLogger(t)

	if !SelfTest(config.SlowMemAlways, logger) {
		t.Fatal("self-test failed against known answers")
	}
}

func TestSelfTestRejectsDigestMismatch(t *testing.T) {
	logger := zaptest.NewLogger(t)

	saved := digestTest
	digestTest = append([]byte(nil), saved...)
	digestTest[0] ^= 0xFF
	defer func() { digestTest = saved }()

	if SelfTest(config.SlowMemAlways, logger) {
		t.Fatal("self-test passed against a corrupted known answer")
	}
}

func TestMinerLifecycle(t *testing.T) {
	logger := zaptest.NewLogger(t)

	cfg := config.MinerConfig{
		UseSlowMemory: config.SlowMemAlways,
		Threads: []config.ThreadConfig{
			{Multiway: 1, Affinity: -1},
			{Multiway: 2, Affinity: -1},
		},
	}

	sink := NewChannelSink(4)
	miner := NewMiner(cfg, sink, logger)

	if !miner.SelfTest() {
		t.Fatal("self-test failed")
	}

	// Target zero: nothing can qualify, this exercises the real hash loop.
	job := testJob(0)
	if err := miner.Start(job); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := miner.Start(job); err == nil {
		t.Error("second Start did not fail")
	}

	time.Sleep(300 * time.Millisecond)
	miner.Publish(testJob(0))
	time.Sleep(100 * time.Millisecond)
	miner.Stop()

	select {
	case sub := <-sink.Results():
		t.Fatalf("target 0 produced a result, nonce %d", sub.Result.Nonce)
	default:
	}
}
