package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Victor-armando18/service-promotions/internal/settlement"
)

type settleOptions struct {
	*rootOptions
	ordersPath  string
	methodsPath string
	pointsID    string
}

func newSettleCommand(root *rootOptions) *cobra.Command {
	opts := &settleOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:               "settle",
		Short:             "Pick the cheapest way to pay a list of orders and print the spending per method",
		Example:           "promotions settle --orders data/settlement/orders.json --payment-methods data/settlement/paymentmethods.json",
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			orders, err := settlement.LoadOrders(opts.ordersPath)
			if err != nil {
				return fmt.Errorf("load orders: %w", err)
			}
			methods, err := settlement.LoadPaymentMethods(opts.methodsPath)
			if err != nil {
				return fmt.Errorf("load payment methods: %w", err)
			}
			wallet, err := settlement.NewWallet(methods, opts.pointsID)
			if err != nil {
				return err
			}
			plan, err := settlement.NewPlanner(wallet, logger).Settle(cmd.Context(), orders)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), plan.Report.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.ordersPath, "orders", "", "Path to the orders file.")
	cmd.Flags().StringVar(&opts.methodsPath, "payment-methods", "", "Path to the payment methods file.")
	cmd.Flags().StringVar(&opts.pointsID, "points-method", "PUNKTY", "Id of the loyalty points method.")
	_ = cmd.MarkFlagRequired("orders")
	_ = cmd.MarkFlagRequired("payment-methods")
	return cmd
}
