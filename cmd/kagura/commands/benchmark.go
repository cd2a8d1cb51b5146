package commands

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shizukutanaka/Kagura/internal/mining"
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Measure hashrate",
	Long:  "Run the configured mining threads against a fixed synthetic job for a while and report the sustained hashrate.",
	RunE:  runBenchmark,
}

var benchDuration time.Duration

func init() {
	rootCmd.AddCommand(benchmarkCmd)
	benchmarkCmd.Flags().DurationVar(&benchDuration, "duration", 60*time.Second, "benchmark duration")
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSetup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sink := mining.NewChannelSink(16)
	miner := mining.NewMiner(cfg.Mining, sink, logger)

	if !miner.SelfTest() {
		return fmt.Errorf("self-test failed")
	}

	// Target zero: nothing qualifies, the loop is pure hashing.
	if err := miner.Start(syntheticJob(0, false)); err != nil {
		return err
	}

	fmt.Printf("Benchmarking %d thread(s) for %s...\n", len(cfg.Mining.Threads), benchDuration)
	time.Sleep(benchDuration)

	window := benchDuration / 2
	rate := miner.Hashrate(window)
	miner.Stop()

	fmt.Printf("Sustained hashrate: %s (over the trailing %s)\n",
		humanize.SIWithDigits(rate, 2, "H/s"), window)
	return nil
}
