package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/tender-matcher/internal/recommend"
	"github.com/jonathan/tender-matcher/internal/types"
)

var recommendCompaniesCmd = &cobra.Command{
	Use:   "recommend-companies",
	Short: "Recommend companies for an indexed tender",
	Long:  "Retrieve the most similar company profiles for a tender and analyze each pairing with the LLM, printing scored recommendations as JSON.",
	RunE:  runRecommendCompanies,
}

var (
	rcTenderID   string
	rcMaxResults int
	rcMinScore   float64
)

func init() {
	recommendCompaniesCmd.Flags().StringVar(&rcTenderID, "tender-id", "", "ID of the indexed tender (required)")
	recommendCompaniesCmd.Flags().IntVar(&rcMaxResults, "max-results", 0, "Maximum recommendations to return (default from config)")
	recommendCompaniesCmd.Flags().Float64Var(&rcMinScore, "min-score", 0, "Minimum match score to include (default from config)")

	recommendCompaniesCmd.MarkFlagRequired("tender-id")

	rootCmd.AddCommand(recommendCompaniesCmd)
}

func runRecommendCompanies(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rt, err := newRuntime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := rt.store.GetByID(ctx, types.KindTender, rcTenderID)
	if err != nil {
		return fmt.Errorf("looking up tender %s: %w", rcTenderID, err)
	}

	opts := recommend.Options{
		MaxResults: rt.cfg.MaxResults,
		MinScore:   &rt.cfg.MinScore,
	}
	if rcMaxResults > 0 {
		opts.MaxResults = rcMaxResults
	}
	if cmd.Flags().Changed("min-score") {
		opts.MinScore = &rcMinScore
	}

	entries, err := rt.orchestrator().RecommendCompaniesForTender(ctx, doc.Tender, opts)
	if err != nil {
		return err
	}

	return printJSON(entries)
}
