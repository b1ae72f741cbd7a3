package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Victor-armando18/service-promotions/internal/infrastructure"
)

func newVersionsCommand() *cobra.Command {
	var rulesDir string
	cmd := &cobra.Command{
		Use:               "versions",
		Short:             "List the rule pack versions available, oldest first",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			versions, err := infrastructure.NewFileRuleLoader(rulesDir).Versions(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesDir, "rules-dir", "data/rules", "Directory holding <version>_rules.{json,yaml} files.")
	return cmd
}
