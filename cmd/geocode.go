package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sichef/sichef/internal/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve restaurants to coordinates",
}

var geocodeLookupCmd = &cobra.Command{
	Use:   "lookup <name> <location>",
	Short: "Geocode a single restaurant",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := withShutdownSignals(cmd.Context())
		defer stop()

		env, err := initEnv(ctx, cfg, envNeeds{geocoder: true})
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Geocoder.Lookup(ctx, args[0], args[1])
		if res.Error != "" {
			return eris.Errorf("geocode %q: %s", geocode.Query(args[0], args[1]), res.Error)
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var geocodeBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Geocode stored records that have no coordinates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := withShutdownSignals(cmd.Context())
		defer stop()

		env, err := initEnv(ctx, cfg, envNeeds{geocoder: true, store: true})
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Dataset.Backfill(ctx)
		if err != nil {
			return eris.Wrap(err, "backfill")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "geocoded %d of %d records\n", res.Updated, res.Attempted)
		return nil
	},
}

func init() {
	geocodeCmd.AddCommand(geocodeLookupCmd, geocodeBackfillCmd)
	rootCmd.AddCommand(geocodeCmd)
}
