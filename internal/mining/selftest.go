package mining

import (
	"bytes"
	"strings"

	"go.uber.org/zap"

	"github.com/shizukutanaka/Kagura/internal/config"
	"github.com/shizukutanaka/Kagura/internal/cryptonight"
)

// Known-answer digests for the self-test inputs.
var (
	digestTest = []byte("\x15\xba\xe0\xaa\x43\x18\xe6\xda\xae\xb8\x1b\xdb\x1c\xbb\x66\x92" +
		"\xd9\xbf\xc0\x31\x2f\xb0\x36\x0d\x12\xe3\xca\x63\xf0\x05\x07\x06")
	digestFox = []byte("\x15\xc7\xf9\xba\x98\xea\x38\x32\xd9\xd3\xb7\xa9\xf0\x35\xdb\xf8" +
		"\xcd\xf5\x41\x40\x5d\x29\x47\xe9\xc9\x3d\x91\xb1\xe8\xd7\x98\x0a")
	digestLog = []byte("\xd6\xf3\xd5\x87\x07\x77\x3c\xc1\xe6\xaa\x87\xff\x22\x0f\x84\xb7" +
		"\x46\x68\xd6\x1c\x94\x40\x58\x12\x65\x6c\x8a\x6f\x3c\x2e\x1a\xb8")
)

// SelfTest initializes the hash primitive under the configured memory policy
// and validates every batch width against known answers. It returns false
// when initialization fails fatally, a context cannot be allocated, or any
// digest mismatches; the caller must not start mining in that case. All
// contexts are freed on every exit path.
func SelfTest(policy config.SlowMemPolicy, logger *zap.Logger) bool {
	if err := initPrimitive(policy, logger); err != nil {
		logger.Error("Memory init failed", zap.Error(err))
		return false
	}

	var ctxs [cryptonight.MaxBatch]*cryptonight.Context
	defer func() {
		for _, ctx := range ctxs {
			ctx.Free()
		}
	}()
	for i := range ctxs {
		ctx, err := allocContext(policy, logger)
		if err != nil {
			return false
		}
		ctxs[i] = ctx
	}

	const (
		inTest = "This is a test"
		inFox  = "The quick brown fox jumps over the lazy dog"
		inLog  = "The quick brown fox jumps over the lazy log"
	)

	out := make([]byte, cryptonight.MaxBatch*cryptonight.HashSize)
	ok := true

	cryptonight.HashSingle([]byte(inTest), out, ctxs[0])
	ok = ok && bytes.Equal(out[:32], digestTest)

	cryptonight.HashDouble([]byte(inFox+inLog), len(inFox), out, ctxs[:])
	ok = ok && bytes.Equal(out[:32], digestFox) && bytes.Equal(out[32:64], digestLog)

	cryptonight.HashQuad([]byte(strings.Repeat(inTest, 4)), len(inTest), out, ctxs[:])
	ok = ok && bytes.Equal(out[:128], bytes.Repeat(digestTest, 4))

	cryptonight.HashPent([]byte(strings.Repeat(inTest, 5)), len(inTest), out, ctxs[:])
	ok = ok && bytes.Equal(out[:160], bytes.Repeat(digestTest, 5))

	cryptonight.HashHex([]byte(strings.Repeat(inTest, 6)), len(inTest), out, ctxs[:])
	ok = ok && bytes.Equal(out[:192], bytes.Repeat(digestTest, 6))

	if !ok {
		logger.Error("Hash self-test failed, refusing to start mining")
	}
	return ok
}
