package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// minimalPDF builds a one-page PDF with a correct cross-reference table.
func minimalPDF() []byte {
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func TestPreflight(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.pdf")
	bad := filepath.Join(dir, "bad.pdf")
	os.WriteFile(good, minimalPDF(), 0o644)
	os.WriteFile(bad, []byte("not a pdf"), 0o644)

	n, err := Preflight(good)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 page, got %d", n)
	}
	if _, err := Preflight(bad); err == nil {
		t.Error("expected error for non-pdf file")
	}
}

func TestArgs(t *testing.T) {
	r := &Runner{InputDir: "in", OutputDir: "out"}
	want := []string{"in", "--output_dir", "out", "--workers", "1", "--output_format", "json"}
	if got := r.Args(); !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func newRunner(t *testing.T) *Runner {
	t.Helper()
	root := t.TempDir()
	return &Runner{
		Binary:       "marker",
		Workers:      1,
		InputDir:     filepath.Join(root, "input_pdfs"),
		OutputDir:    filepath.Join(root, "marker_json"),
		CompletedDir: filepath.Join(root, "completed"),
		RejectedDir:  filepath.Join(root, "rejected"),
		Log:          slog.New(slog.DiscardHandler),
		Check: func(path string) (int, error) {
			if filepath.Base(path) == "broken.pdf" {
				return 0, errors.New("bad xref")
			}
			return 3, nil
		},
	}
}

func TestRunMovesProcessedPDFs(t *testing.T) {
	r := newRunner(t)
	os.MkdirAll(r.InputDir, 0o755)
	os.WriteFile(filepath.Join(r.InputDir, "a.pdf"), []byte("a"), 0o644)
	os.WriteFile(filepath.Join(r.InputDir, "broken.pdf"), []byte("b"), 0o644)
	os.WriteFile(filepath.Join(r.InputDir, "notes.txt"), []byte("c"), 0o644)

	var gotName string
	var gotArgs []string
	r.Exec = func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, nil
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if gotName != "marker" || !slices.Equal(gotArgs, r.Args()) {
		t.Errorf("unexpected command %s %v", gotName, gotArgs)
	}
	if !slices.Equal(res.Processed, []string{"a.pdf"}) {
		t.Errorf("expected a.pdf processed, got %v", res.Processed)
	}
	if !slices.Equal(res.Rejected, []string{"broken.pdf"}) {
		t.Errorf("expected broken.pdf rejected, got %v", res.Rejected)
	}
	if res.Pages["a.pdf"] != 3 {
		t.Errorf("expected 3 pages recorded, got %d", res.Pages["a.pdf"])
	}
	if _, err := os.Stat(filepath.Join(r.CompletedDir, "a.pdf")); err != nil {
		t.Errorf("expected a.pdf in completed dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.RejectedDir, "broken.pdf")); err != nil {
		t.Errorf("expected broken.pdf in rejected dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.InputDir, "notes.txt")); err != nil {
		t.Errorf("expected non-pdf left in place: %v", err)
	}
}

func TestRunFailureKeepsInputs(t *testing.T) {
	r := newRunner(t)
	os.MkdirAll(r.InputDir, 0o755)
	os.WriteFile(filepath.Join(r.InputDir, "a.pdf"), []byte("a"), 0o644)
	r.Exec = func(context.Context, string, ...string) ([]byte, error) {
		return []byte("traceback"), errors.New("exit status 1")
	}

	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected extractor failure")
	}
	if _, err := os.Stat(filepath.Join(r.InputDir, "a.pdf")); err != nil {
		t.Errorf("expected input to stay in place: %v", err)
	}
}

func TestRunNoInput(t *testing.T) {
	r := newRunner(t)
	r.Exec = func(context.Context, string, ...string) ([]byte, error) {
		t.Fatal("extractor should not run")
		return nil, nil
	}
	if _, err := r.Run(context.Background()); !errors.Is(err, ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func TestCollect(t *testing.T) {
	markerDir := t.TempDir()
	dst := filepath.Join(t.TempDir(), "output_json")

	os.MkdirAll(filepath.Join(markerDir, "std1"), 0o755)
	os.WriteFile(filepath.Join(markerDir, "std1", "std1.json"), []byte(`{"children":[]}`), 0o644)
	os.WriteFile(filepath.Join(markerDir, "std1", "std1_meta.json"), []byte(`{}`), 0o644)
	os.MkdirAll(filepath.Join(markerDir, "empty"), 0o755)
	os.WriteFile(filepath.Join(markerDir, "stray.json"), []byte(`{}`), 0o644)

	got, err := Collect(markerDir, dst)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !slices.Equal(got, []string{"std1.json"}) {
		t.Errorf("expected [std1.json], got %v", got)
	}
	data, err := os.ReadFile(filepath.Join(dst, "std1.json"))
	if err != nil || string(data) != `{"children":[]}` {
		t.Errorf("unexpected copied content %q %v", data, err)
	}
}
