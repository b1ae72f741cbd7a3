package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Victor-armando18/service-promotions/internal/platform/logging"
)

type rootOptions struct {
	logLevel string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:               "promotions",
		Short:             "Evaluate promotion rule packs and settle orders from the command line",
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error).")

	cmd.AddCommand(newEvaluateCommand(opts))
	cmd.AddCommand(newVersionsCommand())
	cmd.AddCommand(newSettleCommand(opts))
	return cmd
}

func (o *rootOptions) logger() (*zap.Logger, error) {
	return logging.NewLogger(o.logLevel)
}

func Execute(ctx context.Context) error {
	return newRootCommand().ExecuteContext(ctx)
}
