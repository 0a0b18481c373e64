// Command pipeline extracts 13F holdings from SEC EDGAR into canonical
// CSV tables, ingests the SEC structured quarterly data sets, and loads
// emitted CSVs into DuckDB for local analysis.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"holdings_pipeline/pkg/core/config"
	"holdings_pipeline/pkg/core/datasets"
	"holdings_pipeline/pkg/core/extract"
	"holdings_pipeline/pkg/core/ingest"
	"holdings_pipeline/pkg/core/logging"
	"holdings_pipeline/pkg/core/period"
	"holdings_pipeline/pkg/core/pipeline"
	"holdings_pipeline/pkg/core/store"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "pipeline",
		Short:         "SEC 13F holdings extraction pipeline",
		SilenceErrors: true,
	}

	var cfgPath, identity, outDir string
	var debug bool
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.yaml (default ./"+config.DefaultConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&identity, "identity", "", "SEC User-Agent identity, e.g. \"Jane Doe jane@example.com\"")
	rootCmd.PersistentFlags().StringVar(&outDir, "outdir", "", "output directory (default "+config.DefaultOutputDir+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging with caller locations")

	// loadSettings layers flag values over file and environment config.
	loadSettings := func() (*config.Settings, error) {
		settings, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		if identity != "" {
			settings.SEC.Identity = identity
		}
		if outDir != "" {
			settings.Output.Dir = outDir
		}
		return settings, nil
	}

	newEDGARClient := func(settings *config.Settings, logger *zap.SugaredLogger) *ingest.EDGARClient {
		client := ingest.NewEDGARClient(settings.SEC.Identity, settings.SEC.RateLimit, logger)
		client.SetTimeout(settings.SEC.TimeoutSeconds)
		return client
	}

	var company, from, to string
	var years, quarters []string
	var margin int
	var perYear, master, parquet, toDB bool

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Extract holdings for one filer across a period range",
		RunE: func(c *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if margin > 0 {
				settings.Extract.OffsetMargin = margin
			}
			if err := settings.RequireIdentity(); err != nil {
				return err
			}

			logger, err := logging.Initialize(debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			filter, err := period.NewFilter(years, quarters, from, to)
			if err != nil {
				return err
			}

			client := newEDGARClient(settings, logger)
			fetcher := ingest.NewSubmissionFetcher(client, ingest.NewSubmissionCache(), logger)
			chain := extract.NewDefaultChain(logger, settings.Extract.OffsetMargin)

			orch := pipeline.NewOrchestrator(client, fetcher, chain, logger, pipeline.Options{
				Company:         company,
				OutDir:          settings.Output.Dir,
				PerYearCombined: perYear,
				MasterCombined:  master || parquet,
				MasterParquet:   parquet,
				OffsetMargin:    settings.Extract.OffsetMargin,
			})

			ctx := context.Background()
			if toDB {
				if os.Getenv("DATABASE_URL") == "" {
					logger.Debugw("skipping database sink, DATABASE_URL not set")
				} else {
					if err := store.InitDB(ctx); err != nil {
						return err
					}
					defer store.Close()
					repo := store.NewHoldingsRepo(logger)
					if err := repo.EnsureSchema(ctx); err != nil {
						return err
					}
					orch.SetSink(repo)
				}
			}

			result, err := orch.Run(ctx, filter)
			if err != nil {
				return err
			}
			fmt.Print(result.Report.Render())
			return nil
		},
	}

	runCmd.Flags().StringVar(&company, "company", "", "company CIK, ticker, or registrant name (required)")
	runCmd.Flags().StringSliceVar(&years, "years", nil, "calendar years to include, e.g. 2013,2014")
	runCmd.Flags().StringSliceVar(&quarters, "quarters", nil, "quarter tokens to include, e.g. 2013Q1,2013Q2")
	runCmd.Flags().StringVar(&from, "from", "", "earliest period of report, YYYY-MM-DD inclusive")
	runCmd.Flags().StringVar(&to, "to", "", "latest period of report, YYYY-MM-DD inclusive")
	runCmd.Flags().IntVar(&margin, "margin", 0, "column margin for fixed-width tables without voting sub-headers")
	runCmd.Flags().BoolVar(&perYear, "per-year", false, "also write one combined CSV per calendar year")
	runCmd.Flags().BoolVar(&master, "master", false, "also write a master CSV covering all periods")
	runCmd.Flags().BoolVar(&parquet, "parquet", false, "mirror the master CSV as Parquet (implies --master)")
	runCmd.Flags().BoolVar(&toDB, "db", false, "persist holdings to Postgres (requires DATABASE_URL)")
	runCmd.MarkFlagRequired("company")

	var datasetQuarters []string

	var datasetCmd = &cobra.Command{
		Use:   "dataset",
		Short: "Download SEC structured quarterly data sets and flatten them to CSV",
		RunE: func(c *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if err := settings.RequireIdentity(); err != nil {
				return err
			}

			logger, err := logging.Initialize(debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			client := datasets.NewClient(newEDGARClient(settings, logger), logger, settings.Output.Dir)
			result, err := client.FetchQuarters(context.Background(), datasetQuarters)
			if err != nil {
				return err
			}

			for _, q := range result.Quarters {
				fmt.Printf("%s: %d holdings -> %s\n", q.Quarter, q.Holdings, q.File)
			}
			if len(result.Skipped) > 0 {
				fmt.Printf("skipped unknown quarters: %s (known: %s)\n",
					strings.Join(result.Skipped, ", "), strings.Join(datasets.Quarters(), ", "))
			}
			return nil
		},
	}

	datasetCmd.Flags().StringSliceVar(&datasetQuarters, "quarters", nil, "quarter tokens, e.g. 2023_Q4 (default: every known quarter)")

	var duckPath string

	var loadCmd = &cobra.Command{
		Use:   "load [csv ...]",
		Short: "Import emitted holdings CSVs into a local DuckDB file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			logger, err := logging.Initialize(debug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			duck, err := store.OpenDuck(duckPath, logger)
			if err != nil {
				return err
			}
			defer duck.Close()

			var imported int64
			for _, arg := range args {
				matches, err := filepath.Glob(arg)
				if err != nil {
					return err
				}
				if len(matches) == 0 {
					matches = []string{arg}
				}
				for _, path := range matches {
					rows, err := duck.ImportCSV(path)
					if err != nil {
						return err
					}
					imported += rows
				}
			}

			count, err := duck.HoldingsCount()
			if err != nil {
				return err
			}
			latest, err := duck.LatestPeriod()
			if err != nil {
				return err
			}
			fmt.Printf("imported %d rows (%d total), latest period %s\n", imported, count, latest)

			top, err := duck.TopIssuers(10)
			if err != nil {
				return err
			}
			if len(top) > 0 {
				fmt.Println("top issuers by value (x$1000):")
				for _, issuer := range top {
					fmt.Printf("  %-40s %14d\n", issuer.Name, issuer.Value)
				}
			}
			return nil
		},
	}

	loadCmd.Flags().StringVar(&duckPath, "db", "", "DuckDB database file, created if absent (required)")
	loadCmd.MarkFlagRequired("db")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(loadCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
