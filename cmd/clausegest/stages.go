package main

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/clausegest/internal/extractor"
)

var markerCmd = &cobra.Command{
	Use:   "marker",
	Short: "Run the PDF extractor over the input PDF directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		res, err := b.Marker(cmd.Context())
		out := cmd.OutOrStdout()
		if errors.Is(err, extractor.ErrNoInput) {
			printSummary(out, "marker", field{"status", warnStyle.Render("no input")}, field{"input", b.Cfg.InputPDFDir})
			if res != nil {
				printList(out, errorStyle, "x", res.Rejected)
			}
			return nil
		}
		if err != nil {
			return err
		}
		printSummary(out, "marker",
			field{"processed", len(res.Processed)},
			field{"rejected", len(res.Rejected)},
			field{"completed", res.CompletedDir},
		)
		printList(out, successStyle, "+", res.Processed)
		printList(out, errorStyle, "x", res.Rejected)
		return nil
	},
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Copy extractor JSON files into the input JSON directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		files, err := b.Collect()
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), "collect", field{"files", len(files)}, field{"output", b.Cfg.InputJSONDir})
		printList(cmd.OutOrStdout(), successStyle, "+", files)
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Convert collected block trees into clause schema files",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		results, err := b.Schemas(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		var ok, failed []string
		for _, r := range results {
			if r.Err != nil {
				failed = append(failed, r.DocumentID+": "+r.Error)
				continue
			}
			ok = append(ok, filepath.Base(r.Output))
		}
		printSummary(out, "schema",
			field{"created", len(ok)},
			field{"failed", len(failed)},
			field{"output", b.Cfg.SchemaDir},
		)
		printList(out, successStyle, "+", ok)
		printList(out, errorStyle, "x", failed)
		return nil
	},
}

var chunksCmd = &cobra.Command{
	Use:   "chunks",
	Short: "Split schema files into clause records and index them",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		sum, err := b.Chunks(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printSummary(out, "chunks",
			field{"documents", len(sum.Documents)},
			field{"chunks", sum.Chunks},
			field{"indexed", sum.Indexed},
			field{"output", b.Cfg.ChunkDir},
		)
		printList(out, successStyle, "+", sum.Documents)
		printList(out, warnStyle, "-", sum.Skipped)
		return nil
	},
}

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Extract scope statements and test sections",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		sum, err := b.Scopes()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printSummary(out, "scope",
			field{"processed", len(sum.Documents)},
			field{"skipped", len(sum.Skipped)},
			field{"output", sum.OutputDir},
		)
		printList(out, successStyle, "+", sum.Documents)
		printList(out, warnStyle, "-", sum.Skipped)
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the search index from the catalog and scope files",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		sum, err := b.Reindex(cmd.Context())
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), "index",
			field{"documents", sum.Documents},
			field{"chunks", sum.Chunks},
			field{"scopes", sum.Scopes},
			field{"index", b.Cfg.IndexDir},
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(markerCmd, collectCmd, schemaCmd, chunksCmd, scopeCmd, indexCmd)
}
