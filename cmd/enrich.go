package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/lead-enricher/internal/enrich"
)

func newEnrichCmd() *cobra.Command {
	var req enrich.Request
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enriches one company and prints the result as JSON",
		Example: `  lead-enricher enrich --domain acme.com
  lead-enricher enrich --name "Acme Industries"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnrich(cmd, req)
		},
	}
	cmd.Flags().StringVar(&req.Domain, "domain", "", "company domain, e.g. acme.com")
	cmd.Flags().StringVar(&req.Name, "name", "", "company name, used when the domain is unknown or unreachable")
	return cmd
}

func runEnrich(cmd *cobra.Command, req enrich.Request) error {
	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Budget())
	defer cancel()

	res, err := rt.app.Enricher.Enrich(ctx, req)
	if err != nil {
		return fmt.Errorf("enrich: %w", err)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
