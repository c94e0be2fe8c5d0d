// Command fitctl is the operator CLI: offline weight suggestions and
// Firestore maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fitcoach-backend/internal/config"
	"fitcoach-backend/internal/db"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	verbose bool
	timeout time.Duration
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "fitctl",
		Short:         "FitCoach operator tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				opts.logger = l
			} else {
				opts.logger = zap.NewNop()
			}
			return nil
		},
	}
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log to stderr")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "deadline for Firestore commands")

	cmd.AddCommand(
		newSuggestWeightCmd(),
		newBackfillProgressCmd(opts),
		newCoachCodeCmd(opts),
	)
	return cmd
}

// connect loads configuration the same way the server does and opens Firestore.
// The returned func closes the client.
func connect(ctx context.Context, opts *rootOptions) (func(), error) {
	_ = godotenv.Load()
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := db.InitFirestore(ctx, cfg, opts.logger); err != nil {
		return nil, err
	}
	return func() {
		if err := db.Close(); err != nil {
			opts.logger.Warn("Failed to close Firestore client", zap.Error(err))
		}
	}, nil
}
