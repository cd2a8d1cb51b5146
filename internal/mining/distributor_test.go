package mining

import (
	"testing"
	"time"
)

func TestPublishWaitsForDrain(t *testing.T) {
	dist := NewDistributor(2)
	dist.ready()

	release := make(chan struct{})
	go func() {
		time.Sleep(250 * time.Millisecond)
		dist.ready()
		close(release)
	}()

	start := time.Now()
	dist.Publish(Job{Target: 1})
	elapsed := time.Since(start)

	<-release
	if elapsed < 200*time.Millisecond {
		t.Errorf("Publish returned before the drain barrier: %v", elapsed)
	}
	if got := dist.Generation(); got != 1 {
		t.Errorf("generation = %d, want 1", got)
	}
	if got := dist.consumeCnt.Load(); got != 0 {
		t.Errorf("consume counter = %d after publish, want 0", got)
	}
}

func TestConsumeAccounting(t *testing.T) {
	dist := NewDistributor(2)
	dist.ready()
	dist.ready()

	job := Job{Target: 42, BlobLen: 76, PoolID: 3}
	copy(job.ID[:], "job-1")
	job.Blob[0] = 0xAA
	dist.Publish(job)

	first := dist.consume()
	if got := dist.consumeCnt.Load(); got != 1 {
		t.Errorf("consume counter = %d, want 1", got)
	}
	second := dist.consume()
	if got := dist.consumeCnt.Load(); got != 2 {
		t.Errorf("consume counter = %d, want 2", got)
	}

	for _, copied := range []Job{first, second} {
		if copied.Target != 42 || copied.PoolID != 3 || copied.Blob[0] != 0xAA {
			t.Errorf("consumed job does not match published job: %+v", copied)
		}
	}

	// The copies are private: mutating one must not touch the shared record.
	first.Blob[0] = 0xBB
	if dist.current.Blob[0] != 0xAA {
		t.Error("consume aliased the shared job blob")
	}
}

func TestGenerationIncrementsPerPublish(t *testing.T) {
	dist := NewDistributor(1)
	dist.ready()

	dist.Publish(Job{})
	dist.consume()
	dist.Publish(Job{})
	dist.consume()

	if got := dist.Generation(); got != 2 {
		t.Errorf("generation = %d, want 2", got)
	}
}

func TestRetireUnblocksPublish(t *testing.T) {
	dist := NewDistributor(1)
	dist.retire()

	done := make(chan struct{})
	go func() {
		dist.Publish(Job{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish still blocked after the only worker retired")
	}
}
