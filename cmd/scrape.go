package main

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/pipeline"
)

var (
	scrapeLimit    int
	scrapeKeywords string
	scrapeSave     bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape a profile or single video and print the restaurant records",
	Long: "Runs the pipeline for a TikTok or Instagram profile URL, or a single video URL, " +
		"and prints the records as JSON. With --save the records are merged into the stored dataset.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := withShutdownSignals(cmd.Context())
		defer stop()

		env, err := initEnv(ctx, cfg, envNeeds{pipeline: true, store: scrapeSave})
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Pipeline.Run(ctx, pipeline.Request{
			URL:      args[0],
			Limit:    scrapeLimit,
			Keywords: scrapeKeywords,
		})
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		if scrapeSave {
			merged, err := env.Dataset.MergeBatch(ctx, records)
			if err != nil {
				return eris.Wrap(err, "scrape: save")
			}
			zap.L().Info("dataset updated",
				zap.Int("new_records", len(records)),
				zap.Int("total", len(merged)),
			)
		}

		return printJSON(cmd.OutOrStdout(), records)
	},
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "max videos to process for a profile (default from config)")
	scrapeCmd.Flags().StringVar(&scrapeKeywords, "keywords", "", "case-insensitive text the caption must contain")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "merge the records into the stored dataset")
	rootCmd.AddCommand(scrapeCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}
