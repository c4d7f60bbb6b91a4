package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/tender-matcher/internal/ingestion"
)

var indexCompanyCmd = &cobra.Command{
	Use:   "index-company",
	Short: "Index company profiles from a JSON file or a free-form document",
	Long:  "Index company profiles either from a structured JSON file or by extracting a profile from a free-form company document with the LLM.",
	RunE:  runIndexCompany,
}

var (
	companyFile     string
	companyDocument string
)

func init() {
	indexCompanyCmd.Flags().StringVarP(&companyFile, "file", "f", "", "Path to JSON company profile file")
	indexCompanyCmd.Flags().StringVarP(&companyDocument, "document", "d", "", "Path to free-form company document (uses the LLM)")

	rootCmd.AddCommand(indexCompanyCmd)
}

func runIndexCompany(cmd *cobra.Command, args []string) error {
	if companyFile == "" && companyDocument == "" {
		return fmt.Errorf("either --file or --document must be provided")
	}
	if companyFile != "" && companyDocument != "" {
		return fmt.Errorf("--file and --document are mutually exclusive; provide only one")
	}

	ctx, cancel := commandContext()
	defer cancel()

	rt, err := newRuntime(ctx, companyDocument != "")
	if err != nil {
		return err
	}
	defer rt.Close()

	ingestor := ingestion.New(rt.store, rt.logger)

	if companyFile != "" {
		result, err := ingestor.IndexCompanyFile(ctx, companyFile)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Indexed %d company profile(s), skipped %d\n", result.Indexed, result.Skipped)
		return nil
	}

	text, err := os.ReadFile(companyDocument)
	if err != nil {
		return fmt.Errorf("reading document: %w", err)
	}

	profile, err := ingestion.NewProfileExtractor(rt.llm).ExtractProfile(ctx, string(text))
	if err != nil {
		return fmt.Errorf("extracting profile: %w", err)
	}

	doc, err := ingestor.IndexCompany(ctx, profile)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Indexed company %q (id %s)\n", profile.Name, doc.ID)
	return nil
}
