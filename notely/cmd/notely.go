// Admin command-line interface for notely: schema migrations and blob maintenance.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"notely/notely/config"
	"notely/notely/sources/psql"
	"notely/notely/utils/color"
	"notely/notely/utils/logging"

	"github.com/spf13/cobra"
)

var (
	cfg     config.Config
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "notely",
	Short:         "Administer a notely deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		return logging.InitLogger(cfg.LogDir)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall deadline for the command")
}

// openDatabase connects with the same pool settings as the server.
func openDatabase(ctx context.Context) (*psql.Database, error) {
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.ColorError("error: "+err.Error()))
		os.Exit(1)
	}
}
