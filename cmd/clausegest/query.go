package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/clausegest/internal/export"
	"github.com/dgallion1/clausegest/internal/search"
)

var (
	searchDoc  string
	searchSize int
	recTopK    int
	exportFmt  string
	exportOut  string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over indexed clauses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		q := strings.Join(args, " ")
		hits, err := b.Deps.Index.Search(q, searchDoc, searchSize)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d hit(s) for %q", len(hits), q)))
		for _, h := range hits {
			fmt.Fprintf(out, "  %s %s %s\n", successStyle.Render(h.ChunkID), h.Title, dimStyle.Render(fmt.Sprintf("%.3f", h.Score)))
		}
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <query>",
	Short: "Rank standards by how well their scope matches a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		recs, err := b.Deps.Index.Recommend(strings.Join(args, " "), recTopK)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, r := range recs {
			fmt.Fprintf(out, "%2d. %s %s\n", i+1, titleStyle.Render(r.DocumentID),
				dimStyle.Render(fmt.Sprintf("similarity %.4f  score %.4f", r.Similarity, r.Score)))
			if r.Title != "" {
				fmt.Fprintf(out, "    %s\n", r.Title)
			}
		}
		if len(recs) == 0 {
			fmt.Fprintln(out, warnStyle.Render("no matching standards"))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <document-id>",
	Short: "Export a document's clauses as md, html, docx or tar.xz",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.ParseFormat(exportFmt)
		if err != nil {
			return err
		}
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		docID := args[0]
		records, err := b.Deps.Catalog.ListChunks(cmd.Context(), docID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return fmt.Errorf("document %s not found", docID)
		}

		path := exportOut
		if path == "" {
			path = format.Filename(docID)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := export.Write(f, format, docID, records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), "export",
			field{"document", docID},
			field{"clauses", len(records)},
			field{"file", path},
		)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchDoc, "doc", "", "Restrict results to one document")
	searchCmd.Flags().IntVarP(&searchSize, "size", "n", 10, "Maximum number of hits")
	recommendCmd.Flags().IntVarP(&recTopK, "top", "k", search.DefaultTopK, "Number of standards to return")
	exportCmd.Flags().StringVarP(&exportFmt, "format", "f", "md", "Output format (md, html, docx, tar.xz)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (default <document-id>.<format>)")
	rootCmd.AddCommand(searchCmd, recommendCmd, exportCmd)
}
