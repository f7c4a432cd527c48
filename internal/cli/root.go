// Package cli implements the parcel-sync command line.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cog_mailing_sync/internal/bootstrap"
	"cog_mailing_sync/platform/config"
	"cog_mailing_sync/platform/logger"
)

var dryRun bool

var rootCmd = &cobra.Command{
	Use:   "parcel-sync",
	Short: "Reconcile Cog mailing addresses against the Gaze owner registry",
	Long: `parcel-sync compares the owner and mortgage mailing addresses Gaze reports
for a parcel with the hierarchy stored in Cog. Missing rows are created;
differences are never overwritten and go to the operator review queue.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "resolve and apply every plan, then roll it back")
}

// env is what every subcommand needs before it does work.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger.New(cfg.Env)}, nil
}

// connect opens the full sync stack with operator notifications registered.
func (e *env) connect(ctx context.Context) (*bootstrap.Stack, error) {
	stack, err := bootstrap.Connect(ctx, e.cfg, e.log)
	if err != nil {
		return nil, err
	}
	stack.RegisterNotifications()
	return stack, nil
}
