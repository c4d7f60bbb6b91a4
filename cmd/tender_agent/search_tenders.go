package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/tender-matcher/internal/ingestion"
	"github.com/jonathan/tender-matcher/internal/tendersource"
)

var searchTendersCmd = &cobra.Command{
	Use:   "search-tenders",
	Short: "Search a live tender source and index the results",
	Long:  "Query the EU TED notice API, normalize each returned notice, and index it into the document store.",
	RunE:  runSearchTenders,
}

var (
	stQuery      string
	stCountries  []string
	stCPVCodes   []string
	stDaysBack   int
	stMaxResults int
)

func init() {
	searchTendersCmd.Flags().StringVarP(&stQuery, "query", "q", "", "Full-text search query (required)")
	searchTendersCmd.Flags().StringSliceVar(&stCountries, "country", nil, "ISO country codes to restrict the search to")
	searchTendersCmd.Flags().StringSliceVar(&stCPVCodes, "cpv", nil, "CPV codes to restrict the search to")
	searchTendersCmd.Flags().IntVar(&stDaysBack, "days-back", 30, "How many days of publications to search")
	searchTendersCmd.Flags().IntVar(&stMaxResults, "max-results", 50, "Maximum notices to fetch")

	searchTendersCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(searchTendersCmd)
}

func runSearchTenders(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.cfg.TEDAPIKey == "" {
		return fmt.Errorf("EU_TED_API_KEY is required for search-tenders")
	}

	src := tendersource.NewTEDClient(rt.cfg.TEDAPIKey, rt.logger)
	opts := tendersource.SearchOptions{
		MaxResults:   stMaxResults,
		CountryCodes: stCountries,
		CPVCodes:     stCPVCodes,
		DaysBack:     stDaysBack,
	}

	result, err := ingestion.New(rt.store, rt.logger).SearchAndIndex(ctx, src, stQuery, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Indexed %d tender(s) from TED, skipped %d\n", result.Indexed, result.Skipped)
	return nil
}
