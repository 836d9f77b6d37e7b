package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/buyer-dedupe/internal/config"
)

var (
	cfg     *config.Config
	ownerID string
)

var rootCmd = &cobra.Command{
	Use:   "buyer-dedupe",
	Short: "Detect and merge duplicate buyer records",
	Long:  "Scores buyer records against an owner's list, groups likely duplicates, and merges chosen pairs field by field.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return cfg.Validate(cmd.Name())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&ownerID, "owner", "", "owner whose buyer list to operate on")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
