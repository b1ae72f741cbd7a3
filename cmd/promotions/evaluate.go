package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Victor-armando18/service-promotions/internal/domain"
	"github.com/Victor-armando18/service-promotions/internal/domain/engine"
	"github.com/Victor-armando18/service-promotions/internal/infrastructure"
	"github.com/Victor-armando18/service-promotions/internal/infrastructure/yaml"
	"github.com/Victor-armando18/service-promotions/internal/interfaces"
	"github.com/Victor-armando18/service-promotions/internal/platform/logging"
	"github.com/Victor-armando18/service-promotions/internal/usecase"
)

type evaluateOptions struct {
	*rootOptions
	rulesDir string
	version  string
	cartPath string
	asOf     string
	asJSON   bool
}

func newEvaluateCommand(root *rootOptions) *cobra.Command {
	opts := &evaluateOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a cart against a rule pack",
		Example: `promotions evaluate --cart data/carts/basket.json
promotions evaluate --version v1.0.0 --cart basket.yaml --as-of 2025-07-01T00:00:00Z`,
		Args:              cobra.NoArgs,
		DisableAutoGenTag: true,
		SilenceErrors:     true,
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd)
		},
	}
	cmd.Flags().StringVar(&opts.rulesDir, "rules-dir", "data/rules", "Directory holding <version>_rules.{json,yaml} files.")
	cmd.Flags().StringVar(&opts.version, "version", infrastructure.LatestVersion, "Rule pack version to load.")
	cmd.Flags().StringVar(&opts.cartPath, "cart", "", "Path to the cart (JSON or YAML).")
	cmd.Flags().StringVar(&opts.asOf, "as-of", "", "Evaluation instant in RFC 3339. Defaults to now.")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the raw result as JSON.")
	_ = cmd.MarkFlagRequired("cart")
	return cmd
}

func (o *evaluateOptions) run(cmd *cobra.Command) error {
	logger, err := o.logger()
	if err != nil {
		return err
	}
	ctx := logging.WithLogger(cmd.Context(), logger)

	asOf := time.Now().UTC()
	if o.asOf != "" {
		if asOf, err = time.Parse(time.RFC3339, o.asOf); err != nil {
			return fmt.Errorf("parse --as-of: %w", err)
		}
	}
	cart, err := readCart(o.cartPath)
	if err != nil {
		return err
	}

	svc := usecase.NewEvaluationService(
		infrastructure.NewFileRuleLoader(o.rulesDir),
		interfaces.NewDefaultEngine(),
		usecase.WithLogger(logger),
	)
	if _, err := svc.Reload(ctx, o.version); err != nil {
		return err
	}
	res, err := svc.Evaluate(ctx, cart, asOf)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printSummary(out, res)
	return nil
}

func readCart(path string) (domain.Cart, error) {
	var cart domain.Cart
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.LoadFile(path, &cart); err != nil {
			return domain.Cart{}, err
		}
		return cart, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", path, err)
	}
	return cart, nil
}

func printSummary(w io.Writer, res *engine.EvaluationResult) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "   CART %s  (rules %s, as of %s)\n", res.CartID, res.RulesVersion, res.AsOf.Format(time.RFC3339))
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w, "\n[1. TRACE]")
	for _, step := range res.Trace {
		fmt.Fprintf(w, "   [%-12s] Rule: %-20s -> %s\n", strings.ToUpper(string(step.Phase)), step.RuleID, step.Message)
	}

	fmt.Fprintln(w, "\n[2. APPLIED]")
	if len(res.Applied) == 0 {
		fmt.Fprintln(w, "   none")
	}
	for _, a := range res.Applied {
		fmt.Fprintf(w, "   %-20s %-10s %s\n", a.RuleID, a.Combinability, a.Amount.StringFixed(2))
	}

	fmt.Fprintln(w, "\n[3. DIAGNOSTICS]")
	if len(res.Diagnostics) == 0 {
		fmt.Fprintln(w, "   none")
	}
	for _, d := range res.Diagnostics {
		fmt.Fprintf(w, "   %-20s %-18s %s\n", d.RuleID, d.Reason, d.Message)
	}

	fmt.Fprintln(w, "\n[4. TOTALS]")
	fmt.Fprintf(w, "   Subtotal: %s %s\n", res.Subtotal.StringFixed(2), res.Currency)
	fmt.Fprintf(w, "   Discount: %s %s\n", res.DiscountTotal.StringFixed(2), res.Currency)
	fmt.Fprintf(w, "   Total:    %s %s\n", res.Total.StringFixed(2), res.Currency)
	fmt.Fprintln(w, rule)
}
