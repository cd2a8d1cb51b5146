package mining

// SubmittedResult pairs a mined result with the pool it belongs to.
type SubmittedResult struct {
	Result Result
	PoolID int
}

// ChannelSink forwards results over a buffered channel. Submissions never
// block the hash loop: when the consumer falls behind, new results are
// dropped rather than stalling a worker.
type ChannelSink struct {
	ch chan SubmittedResult
}

// NewChannelSink creates a sink with the given buffer depth.
func NewChannelSink(depth int) *ChannelSink {
	return &ChannelSink{ch: make(chan SubmittedResult, depth)}
}

// Submit implements ResultSink.
func (s *ChannelSink) Submit(res Result, poolID int) {
	select {
	case s.ch <- SubmittedResult{Result: res, PoolID: poolID}:
	default:
	}
}

// Results returns the stream of submitted results.
func (s *ChannelSink) Results() <-chan SubmittedResult {
	return s.ch
}
