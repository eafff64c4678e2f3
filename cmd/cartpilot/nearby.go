package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cartpilot/backend/internal/app"
	"github.com/cartpilot/backend/internal/domain"
	"github.com/cartpilot/backend/internal/usecase"
)

func newNearbyCmd(c *cli) *cobra.Command {
	var (
		lat, lng, radius float64
		chain            string
	)

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List stores near a coordinate, nearest first",
		Long: `Ranks stores from the configured store source by great-circle distance.

Example:
  cartpilot nearby --lat 51.5074 --lng -0.1278 --radius 3
  cartpilot nearby --lat 53.48 --lng -2.24 --chain asda`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			stores, closeStores, err := app.OpenStoreRepository(ctx, c.cfg.Stores, c.logger.Named("stores"))
			if err != nil {
				return err
			}
			if closeStores != nil {
				defer closeStores() //nolint:errcheck // read-only use
			}

			ranker := usecase.NewDistanceRanker(c.cfg.Geo.BoundingBox, c.logger.Named("ranker"))
			locator := usecase.NewStoreLocatorService(stores, ranker,
				usecase.StoreLocatorConfig{DefaultRadiusMiles: c.cfg.Geo.DefaultRadiusMiles}, c.logger.Named("locator"))

			result, err := locator.FindNearby(ctx, domain.Coordinate{Lat: lat, Lng: lng}, radius, chain)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MILES\tID\tNAME\tCHAIN\tPOSTCODE")
			for _, s := range result.Stores {
				fmt.Fprintf(w, "%.2f\t%s\t%s\t%s\t%s\n", s.DistanceMiles, s.ID, s.Name, s.Chain, s.Postcode)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d stores, %d out of radius, %d excluded for bad coordinates\n",
				len(result.Stores), result.OutOfRadius, result.Excluded)
			return nil
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "origin latitude (required)")
	cmd.Flags().Float64Var(&lng, "lng", 0, "origin longitude (required)")
	cmd.Flags().Float64VarP(&radius, "radius", "r", 0, "search radius in miles (default from config)")
	cmd.Flags().StringVar(&chain, "chain", "", "only stores of this chain")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
