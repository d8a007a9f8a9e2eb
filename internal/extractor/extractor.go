// Package extractor drives the external PDF layout extractor and gathers
// its per-document JSON output.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// ErrNoInput is returned by Run when the input directory holds no PDFs.
var ErrNoInput = errors.New("no PDFs found")

// Preflight opens a PDF and returns its page count.
func Preflight(path string) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", filepath.Base(path), r)
		}
	}()
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	n := reader.NumPage()
	if n == 0 {
		return 0, fmt.Errorf("pdf %s has no pages", filepath.Base(path))
	}
	return n, nil
}

// ExecFunc runs an external command and returns its combined output.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Runner invokes the extractor over a directory of PDFs.
type Runner struct {
	Binary       string
	Workers      int
	InputDir     string
	OutputDir    string
	CompletedDir string
	RejectedDir  string
	Exec         ExecFunc
	Check        func(path string) (int, error)
	Log          *slog.Logger
}

// Result summarizes one extractor run.
type Result struct {
	Processed    []string       `json:"processed"`
	Pages        map[string]int `json:"pages"`
	Rejected     []string       `json:"rejected,omitempty"`
	CompletedDir string         `json:"completed_dir"`
}

// Args returns the extractor command line, without the binary.
func (r *Runner) Args() []string {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	return []string{
		r.InputDir,
		"--output_dir", r.OutputDir,
		"--workers", strconv.Itoa(workers),
		"--output_format", "json",
	}
}

// Run processes every PDF in the input directory. PDFs that fail the
// preflight check are moved to RejectedDir before the extractor starts.
// Successfully processed PDFs are moved to CompletedDir.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	for _, dir := range []string{r.InputDir, r.OutputDir, r.CompletedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	pdfs, err := InputPDFs(r.InputDir)
	if err != nil {
		return nil, err
	}
	res := &Result{Pages: make(map[string]int), CompletedDir: r.CompletedDir}
	check := r.Check
	if check == nil {
		check = Preflight
	}
	var accepted []string
	for _, p := range pdfs {
		n, err := check(p)
		if err != nil {
			log.Warn("rejecting unreadable pdf", "file", filepath.Base(p), "error", err)
			res.Rejected = append(res.Rejected, filepath.Base(p))
			if r.RejectedDir != "" {
				if err := moveInto(p, r.RejectedDir); err != nil {
					return res, err
				}
			}
			continue
		}
		res.Pages[filepath.Base(p)] = n
		accepted = append(accepted, p)
	}
	if len(accepted) == 0 {
		return res, ErrNoInput
	}

	run := r.Exec
	if run == nil {
		run = execCommand
	}
	log.Info("running extractor", "binary", r.Binary, "pdfs", len(accepted))
	out, err := run(ctx, r.Binary, r.Args()...)
	if err != nil {
		return res, fmt.Errorf("extractor failed: %w: %s", err, tail(out, 1024))
	}

	for _, p := range accepted {
		if err := moveInto(p, r.CompletedDir); err != nil {
			return res, err
		}
		res.Processed = append(res.Processed, filepath.Base(p))
	}
	return res, nil
}

// InputPDFs lists the *.pdf files directly inside dir.
func InputPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

func moveInto(path, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	dst := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return fmt.Errorf("move %s: %w", filepath.Base(path), err)
	}
	return nil
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}

// Collect copies <markerDir>/<name>/<name>.json into dst and returns the
// copied file names in name order. Directories without a matching JSON
// file are ignored.
func Collect(markerDir, dst string) ([]string, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dst, err)
	}
	entries, err := os.ReadDir(markerDir)
	if err != nil {
		return nil, fmt.Errorf("read extractor output: %w", err)
	}
	collected := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name() + ".json"
		src := filepath.Join(markerDir, e.Name(), name)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := copyFile(src, filepath.Join(dst, name)); err != nil {
			return collected, err
		}
		collected = append(collected, name)
	}
	sort.Strings(collected)
	return collected, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", filepath.Base(src), err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
