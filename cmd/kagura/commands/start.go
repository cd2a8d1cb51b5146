package commands

import (
	"context"
	"encoding/hex"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shizukutanaka/Kagura/internal/hardware"
	"github.com/shizukutanaka/Kagura/internal/mining"
	"github.com/shizukutanaka/Kagura/internal/monitoring"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start mining",
	Long:  "Run the self-test, start the configured mining threads against a locally generated job and report hashrate until interrupted.",
	RunE:  runStart,
}

var (
	startTarget   uint64
	startNiceHash bool
)

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().Uint64Var(&startTarget, "target", 1<<44, "share target (hash values below this qualify)")
	startCmd.Flags().BoolVar(&startNiceHash, "nicehash", false, "derive nonces in nicehash mode")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSetup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	hardware.LogCPU(logger, hardware.DetectCPU())

	sink := mining.NewChannelSink(64)
	miner := mining.NewMiner(cfg.Mining, sink, logger)

	if !miner.SelfTest() {
		logger.Error("Self-test failed, aborting")
		os.Exit(1)
	}
	logger.Info("Self-test passed",
		zap.Int("threads", len(cfg.Mining.Threads)),
		zap.String("slow_memory", cfg.Mining.UseSlowMemory.String()))

	if err := miner.Start(mining.NewStalledJob()); err != nil {
		return err
	}
	defer miner.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Monitoring.Enabled {
		exporter := monitoring.NewMetricsExporter(monitoring.Config{
			ListenAddr: cfg.Monitoring.ListenAddr,
		}, miner.Telemetry(), logger)
		exporter.Start(ctx)
	}

	miner.Publish(syntheticJob(startTarget, startNiceHash || cfg.Mining.NiceHash))

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down")
			return nil
		case sub := <-sink.Results():
			logger.Info("Share found",
				zap.Uint32("nonce", sub.Result.Nonce),
				zap.String("hash", hex.EncodeToString(sub.Result.Hash[:8])),
				zap.Int("pool", sub.PoolID))
		case <-ticker.C:
			rate := miner.Hashrate(time.Minute)
			logger.Info("Hashrate", zap.String("rate", humanize.SIWithDigits(rate, 2, "H/s")))
		}
	}
}
