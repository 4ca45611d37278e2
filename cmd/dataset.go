package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sichef/sichef/internal/aggregate"
)

var (
	listSearch string
	listSort   string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect and manage the stored restaurant dataset",
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print stored records, optionally filtered and sorted",
	RunE: func(cmd *cobra.Command, args []string) error {
		order, err := aggregate.ParseSortOrder(listSort)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, envNeeds{store: true})
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Dataset.Dataset(ctx)
		if err != nil {
			return err
		}
		if listSearch != "" {
			records = aggregate.Search(records, listSearch)
		}
		return printJSON(cmd.OutOrStdout(), aggregate.Sort(records, order))
	},
}

var datasetStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print priority and geocoding counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, envNeeds{store: true})
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Dataset.Dataset(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), aggregate.Summarize(records))
	},
}

var datasetImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the stored dataset with an exported JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "import: open file")
		}
		defer f.Close() //nolint:errcheck

		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, envNeeds{store: true})
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Dataset.Import(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d records\n", n)
		return nil
	},
}

var datasetExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the stored dataset to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, envNeeds{store: true})
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Create(args[0])
		if err != nil {
			return eris.Wrap(err, "export: create file")
		}
		n, err := env.Dataset.Export(ctx, f)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = eris.Wrap(cerr, "export: close file")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", n, args[0])
		return nil
	},
}

var datasetFavoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle a record's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, envNeeds{store: true})
		if err != nil {
			return err
		}
		defer env.Close()

		on, err := env.Store.ToggleFavorite(ctx, args[0])
		if err != nil {
			return err
		}
		state := "removed from"
		if on {
			state = "added to"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s favorites\n", args[0], state)
		return nil
	},
}

func init() {
	datasetListCmd.Flags().StringVar(&listSearch, "search", "", "filter by name, dish, location or caption")
	datasetListCmd.Flags().StringVar(&listSort, "sort", "engagement", "engagement, likes, saves, shares or priority")
	datasetCmd.AddCommand(datasetListCmd, datasetStatsCmd, datasetImportCmd, datasetExportCmd, datasetFavoriteCmd)
	rootCmd.AddCommand(datasetCmd)
}
