package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shizukutanaka/Kagura/internal/mining"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Validate the hash primitive",
	Long:  "Initialize scratch memory under the configured policy and check every batch width against known answers.",
	RunE:  runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}

func runSelftest(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSetup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !mining.SelfTest(cfg.Mining.UseSlowMemory, logger) {
		return fmt.Errorf("self-test failed")
	}
	fmt.Println("Self-test passed.")
	return nil
}
