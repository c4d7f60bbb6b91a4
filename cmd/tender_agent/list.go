package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/tender-matcher/internal/types"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Long:  "Print indexed tenders or company profiles as JSON, most recently indexed first.",
	RunE:  runList,
}

var (
	listKind  string
	listLimit int
)

func init() {
	listCmd.Flags().StringVarP(&listKind, "kind", "k", "", "Document kind: tender or company (required)")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "Maximum documents to list")

	listCmd.MarkFlagRequired("kind")

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	var kind types.EntityKind
	switch listKind {
	case "tender":
		kind = types.KindTender
	case "company":
		kind = types.KindCompany
	default:
		return fmt.Errorf("--kind must be 'tender' or 'company', got %q", listKind)
	}

	ctx, cancel := commandContext()
	defer cancel()

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	docs, err := rt.store.ListAll(ctx, kind, listLimit)
	if err != nil {
		return err
	}

	return printJSON(docs)
}
