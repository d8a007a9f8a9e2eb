package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/clausegest/internal/pipeline"
	"github.com/dgallion1/clausegest/internal/schema"
)

var runForce bool

var runCmd = &cobra.Command{
	Use:   "run [file.json...]",
	Short: "Convert, chunk, index and extract scope for documents end to end",
	Long: `Run processes each block tree through the same pipeline as the HTTP
ingest endpoint. Without arguments every file in the input JSON
directory is processed. Unchanged documents are skipped unless --force
is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, done, err := openBatch()
		if err != nil {
			return err
		}
		defer done()

		inputs := args
		if len(inputs) == 0 {
			if inputs, err = schema.InputFiles(b.Cfg.InputJSONDir); err != nil {
				return err
			}
		}

		w := pipeline.NewWorker(b.Deps, b.Log)
		out := cmd.OutOrStdout()
		counts := make(map[pipeline.JobStatus]int)
		for _, path := range inputs {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			job := pipeline.NewJob(path, data)
			job.Force = runForce
			w.Process(cmd.Context(), job)

			snap := job.Snapshot()
			counts[snap.Status]++
			printJob(out, snap)
		}
		printSummary(out, "run",
			field{"documents", len(inputs)},
			field{"completed", counts[pipeline.StatusCompleted]},
			field{"partial", counts[pipeline.StatusPartial]},
			field{"skipped", counts[pipeline.StatusDupSkipped]},
			field{"failed", counts[pipeline.StatusFailed]},
		)
		if counts[pipeline.StatusFailed] > 0 {
			return fmt.Errorf("%d document(s) failed", counts[pipeline.StatusFailed])
		}
		return nil
	},
}

func printJob(out io.Writer, snap pipeline.JobSnapshot) {
	switch snap.Status {
	case pipeline.StatusCompleted:
		fmt.Fprintf(out, "  %s %s %s\n", successStyle.Render("+"), snap.DocID,
			dimStyle.Render(fmt.Sprintf("%d clauses, %d images, %d tables",
				snap.Progress.TotalClauses, snap.Progress.TotalImages, snap.Progress.TotalTables)))
	case pipeline.StatusDupSkipped:
		fmt.Fprintf(out, "  %s %s %s\n", warnStyle.Render("="), snap.DocID, dimStyle.Render("unchanged"))
	default:
		fmt.Fprintf(out, "  %s %s %s %v\n", errorStyle.Render("x"), snap.DocID, snap.Status, snap.Progress.Errors)
	}
}

func init() {
	runCmd.Flags().BoolVarP(&runForce, "force", "f", false, "Reprocess documents whose content is unchanged")
	rootCmd.AddCommand(runCmd)
}
