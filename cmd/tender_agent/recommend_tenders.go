package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/tender-matcher/internal/recommend"
	"github.com/jonathan/tender-matcher/internal/types"
)

var recommendTendersCmd = &cobra.Command{
	Use:   "recommend-tenders",
	Short: "Recommend tenders for an indexed company",
	Long:  "Retrieve the most similar tenders for a company profile and analyze each pairing with the LLM, printing scored recommendations as JSON.",
	RunE:  runRecommendTenders,
}

var (
	rtCompanyID      string
	rtMaxResults     int
	rtMinScore       float64
	rtIncludeExpired bool
)

func init() {
	recommendTendersCmd.Flags().StringVar(&rtCompanyID, "company-id", "", "ID of the indexed company (required)")
	recommendTendersCmd.Flags().IntVar(&rtMaxResults, "max-results", 0, "Maximum recommendations to return (default from config)")
	recommendTendersCmd.Flags().Float64Var(&rtMinScore, "min-score", 0, "Minimum match score to include (default from config)")
	recommendTendersCmd.Flags().BoolVar(&rtIncludeExpired, "include-expired", false, "Include tenders whose deadline has passed")

	recommendTendersCmd.MarkFlagRequired("company-id")

	rootCmd.AddCommand(recommendTendersCmd)
}

func runRecommendTenders(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := rt.store.GetByID(ctx, types.KindCompany, rtCompanyID)
	if err != nil {
		return fmt.Errorf("looking up company %s: %w", rtCompanyID, err)
	}

	opts := recommend.Options{
		MaxResults:    rt.cfg.MaxResults,
		MinScore:      &rt.cfg.MinScore,
		FilterExpired: !rtIncludeExpired,
	}
	if rtMaxResults > 0 {
		opts.MaxResults = rtMaxResults
	}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = &rtMinScore
	}

	entries, err := rt.orchestrator().RecommendTendersForCompany(ctx, doc.Company, opts)
	if err != nil {
		return err
	}

	return printJSON(entries)
}
