package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cartpilot/backend/internal/infrastructure/catalog"
	"github.com/cartpilot/backend/internal/usecase"
)

func newSuggestCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Match a query against the product catalog",
		Long: `Ranks catalog entries against a partially typed product query.

Example:
  cartpilot suggest chees
  cartpilot suggest "semi skimmed" --limit 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := catalog.NewProvider(c.cfg.Catalog.Path, c.logger.Named("catalog"))
			if err != nil {
				return err
			}

			matcher := usecase.NewMatcher(usecase.MatchConfig{
				MinScore:           c.cfg.Matching.MinScore,
				Limit:              c.cfg.Matching.Limit,
				MinQueryLength:     c.cfg.Matching.MinQueryLength,
				EnableDebugLogging: c.verbose,
			}, c.logger.Named("matcher"))

			query := strings.Join(args, " ")
			results := matcher.MatchLimit(query, provider.Current(), limit)

			out := cmd.OutOrStdout()
			if c.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			if len(results) == 0 {
				fmt.Fprintf(out, "No catalog entries match %q\n", query)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tID\tNAME\tCATEGORY")
			for _, r := range results {
				fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\n", r.Score, r.Entry.ID, r.Entry.Name, r.Entry.Category)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (default from config)")
	return cmd
}
