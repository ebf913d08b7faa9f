package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bizkit/config"
	pkgconfig "bizkit/pkg/config"
	"bizkit/pkg/logger"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "bizkitctl",
	Short: "Operator tool for the bizkit backend",
	Long: `bizkitctl runs maintenance tasks against the same configuration as the server.

Available commands:
  migrate     - Apply or inspect database migrations
  user        - Manage user accounts
  bulk-emails - Generate marketing emails for a list of topics`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", pkgconfig.GetEnv("CONFIG_DIR", "."),
		"directory holding config.yaml and .env")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(bulkEmailsCmd)
}

// loadConfig reads configuration and builds a logger that writes to stderr
// so command output on stdout stays machine readable.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.NewLogger(cfg.Server.DevMode), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
