package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"marker", "collect", "schema", "chunks", "scope", "index", "run", "search", "recommend", "export"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("expected subcommand %q, got %v (%v)", name, cmd, err)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, "chunks", field{"documents", 2}, field{"output", "out/chunks"})
	got := buf.String()
	for _, s := range []string{"chunks", "documents", "2", "out/chunks"} {
		if !strings.Contains(got, s) {
			t.Errorf("expected summary to contain %q, got %q", s, got)
		}
	}
}

func TestExportRejectsFormatBeforeOpening(t *testing.T) {
	exportFmt = "pdf"
	t.Cleanup(func() { exportFmt = "md" })
	if err := exportCmd.RunE(exportCmd, []string{"doc"}); err == nil {
		t.Error("expected unsupported format error")
	}
}
