package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/tender-matcher/internal/ingestion"
)

var indexTenderCmd = &cobra.Command{
	Use:   "index-tender",
	Short: "Index tenders from a JSON file",
	Long:  "Read a JSON file containing a tender object or an array of tender objects, classify each one, and index it into the document store.",
	RunE:  runIndexTender,
}

var tenderFile string

func init() {
	indexTenderCmd.Flags().StringVarP(&tenderFile, "file", "f", "", "Path to JSON tender file (required)")
	indexTenderCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(indexTenderCmd)
}

func runIndexTender(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	result, err := ingestion.New(rt.store, rt.logger).IndexTenderFile(ctx, tenderFile)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Indexed %d tender(s), skipped %d\n", result.Indexed, result.Skipped)
	return nil
}
