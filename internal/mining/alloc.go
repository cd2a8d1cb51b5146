package mining

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shizukutanaka/Kagura/internal/config"
	"github.com/shizukutanaka/Kagura/internal/cryptonight"
)

// allocContext obtains one lane's scratch context under the configured
// slow-memory policy. Under SlowMemWarn an allocation failure is logged and
// retried once with relaxed memory requirements; under the other policies the
// first failure is final.
func allocContext(policy config.SlowMemPolicy, logger *zap.Logger) (*cryptonight.Context, error) {
	switch policy {
	case config.SlowMemNever:
		ctx, err := cryptonight.AllocContext(true, true)
		if err != nil {
			logger.Error("Memory alloc failed", zap.Error(err))
		}
		return ctx, err

	case config.SlowMemNoLock:
		ctx, err := cryptonight.AllocContext(true, false)
		if err != nil {
			logger.Error("Memory alloc failed", zap.Error(err))
		}
		return ctx, err

	case config.SlowMemWarn:
		ctx, err := cryptonight.AllocContext(true, true)
		if err == nil {
			return ctx, nil
		}
		logger.Warn("Fast memory alloc failed, falling back to slow memory", zap.Error(err))
		return cryptonight.AllocContext(false, false)

	case config.SlowMemAlways:
		return cryptonight.AllocContext(false, false)
	}

	return nil, fmt.Errorf("unknown slow memory policy %v", policy)
}

// initPrimitive initializes the global hash primitive state under the
// configured policy. Failure is fatal except under SlowMemWarn, where the
// engine downgrades to slow memory.
func initPrimitive(policy config.SlowMemPolicy, logger *zap.Logger) error {
	switch policy {
	case config.SlowMemNever:
		return cryptonight.Init(true, true)

	case config.SlowMemNoLock:
		return cryptonight.Init(true, false)

	case config.SlowMemWarn:
		if err := cryptonight.Init(true, true); err != nil {
			logger.Warn("Memory init degraded", zap.Error(err))
			return cryptonight.Init(false, false)
		}
		return nil

	case config.SlowMemAlways:
		return cryptonight.Init(false, false)
	}

	return fmt.Errorf("unknown slow memory policy %v", policy)
}
