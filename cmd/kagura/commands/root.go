package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shizukutanaka/Kagura/internal/config"
	"github.com/shizukutanaka/Kagura/internal/logging"
	"go.uber.org/zap"
)

const Version = "1.2.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "kagura",
	Short:   "Multithreaded CryptoNight CPU miner",
	Long:    `Kagura is a CryptoNight CPU mining engine with batched (1/2/4/5/6-way) hash loops, per-thread CPU affinity and lock-free job handoff.`,
	Version: Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadSetup resolves the configuration and builds the root logger.
func loadSetup() (*config.Config, *zap.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case cfgFile != "":
		cfg, err = config.Load(cfgFile)
	default:
		if _, statErr := os.Stat("config.yaml"); statErr == nil {
			cfg, err = config.Load("config.yaml")
		} else {
			cfg = config.Default()
		}
	}
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level, Encoding: "console"})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
